package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement for the account holder.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// UnknownMerchant is reported when no extraction strategy resolved a counterparty.
const UnknownMerchant = "Unknown"

// UnknownBank is reported when the sender matches no known bank.
const UnknownBank = "Unknown Bank"

// Message is a bank notification as received from a device or an export file.
type Message struct {
	Body      string    `json:"raw_text"`
	Sender    string    `json:"sender"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// ParsedTransaction is the structured record extracted from a single message.
// Date and ReferenceID are nil when the message carries no usable value.
type ParsedTransaction struct {
	Date            *string         `json:"date"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Merchant        string          `json:"merchant"`
	ReferenceID     *string         `json:"reference_id"`
	Bank            string          `json:"bank"`
	RawMessage      string          `json:"raw_message"`
	IsValid         bool            `json:"is_valid"`
	IsGuess         bool            `json:"is_guess"`
	ReceivedAt      time.Time       `json:"received_at,omitempty"`
}

// DateString returns the ISO date or "" when unset.
func (t ParsedTransaction) DateString() string {
	if t.Date == nil {
		return ""
	}
	return *t.Date
}

// Reference returns the reference token or "" when unset.
func (t ParsedTransaction) Reference() string {
	if t.ReferenceID == nil {
		return ""
	}
	return *t.ReferenceID
}

// StoredTransaction is a categorized transaction as persisted by a store.
type StoredTransaction struct {
	ID              int64           `json:"id"`
	Date            string          `json:"date,omitempty"` // ISO date from the message body, may be empty
	Amount          decimal.Decimal `json:"amount"`
	Merchant        string          `json:"merchant"`
	Category        string          `json:"category"`
	Bank            string          `json:"bank"`
	PaymentMode     string          `json:"payment_mode"`
	TransactionType TransactionType `json:"transaction_type"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	RawMessage      string          `json:"raw_message"`
	CreatedAt       time.Time       `json:"created_at"`
}
