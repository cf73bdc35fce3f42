package parser

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// fields are the independently extracted parts of one message.
type fields struct {
	txnType    models.TransactionType
	amount     decimal.Decimal
	reference  *string
	merchant   string
	resolved   bool
	date       *string
	bank       string
	raw        string
	receivedAt time.Time
}

// assemble builds the output record. It cannot fail. IsGuess follows the
// reported merchant string so the flag and the sentinel never disagree.
func assemble(f fields) models.ParsedTransaction {
	merchant := f.merchant
	if !f.resolved {
		merchant = models.UnknownMerchant
	}
	bank := f.bank
	if bank == "" {
		bank = models.UnknownBank
	}
	txnType := f.txnType
	if txnType == "" {
		txnType = models.Expense
	}
	return models.ParsedTransaction{
		Date:            f.date,
		TransactionType: txnType,
		Amount:          f.amount,
		Merchant:        merchant,
		ReferenceID:     f.reference,
		Bank:            bank,
		RawMessage:      f.raw,
		IsValid:         f.amount.IsPositive(),
		IsGuess:         merchant == models.UnknownMerchant,
		ReceivedAt:      f.receivedAt,
	}
}
