package writer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCSVWriter_Write(t *testing.T) {
	report := &Report{
		Source:       "inbox.csv",
		MessagesRead: 5,
		Transactions: []models.ParsedTransaction{
			{
				Date:            strPtr("2025-01-01"),
				TransactionType: models.Expense,
				Amount:          decimal.RequireFromString("450"),
				Merchant:        "Amazon",
				ReferenceID:     strPtr("123456789"),
				Bank:            "HDFC Bank",
				RawMessage:      "Rs.450.00 debited to Amazon, UPI Ref 123456789",
				IsValid:         true,
			},
			{
				TransactionType: models.Income,
				Amount:          decimal.RequireFromString("1500.5"),
				Merchant:        models.UnknownMerchant,
				Bank:            models.UnknownBank,
				RawMessage:      "INR 1,500.50 credited",
				IsValid:         true,
				IsGuess:         true,
			},
		},
	}

	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Source,inbox.csv") {
		t.Error("expected source metadata header")
	}
	if !strings.Contains(output, "# Messages Read,5") {
		t.Error("expected message count metadata")
	}
	if !strings.Contains(output, "Date,Type,Amount,Merchant,Bank,Reference,Valid,Guess,Message") {
		t.Error("expected column headers")
	}
	if !strings.Contains(output, "2025-01-01,Expense,450.00,Amazon,HDFC Bank,123456789,true,false,") {
		t.Errorf("expected first transaction row, got:\n%s", output)
	}
	// message containing a comma is quoted
	if !strings.Contains(output, `"Rs.450.00 debited to Amazon, UPI Ref 123456789"`) {
		t.Error("expected raw message to be quoted")
	}
	if !strings.Contains(output, ",Income,1500.50,Unknown,Unknown Bank,,true,true,") {
		t.Errorf("expected second transaction row, got:\n%s", output)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 3 metadata lines + 1 header + 2 transactions = 6
	if len(lines) != 6 {
		t.Errorf("expected 6 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	report := &Report{
		Source: "inbox.txt",
		Transactions: []models.ParsedTransaction{
			{TransactionType: models.Expense, Amount: decimal.NewFromInt(10), Merchant: "Swiggy"},
		},
	}

	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if strings.Contains(output, "# Source") {
		t.Error("should not have source metadata when header=false")
	}
	if !strings.HasPrefix(output, "Date,Type,Amount") {
		t.Error("expected column headers even without metadata")
	}
}

func TestCSVWriter_WriteStored(t *testing.T) {
	created := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	txns := []models.StoredTransaction{
		{
			ID:              7,
			Date:            "2025-01-01",
			Amount:          decimal.RequireFromString("99.9"),
			Merchant:        "Zomato",
			Category:        "Food",
			Bank:            "ICICI Bank",
			PaymentMode:     "UPI",
			TransactionType: models.Expense,
			ReferenceID:     "REF42",
			CreatedAt:       created,
		},
	}

	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.WriteStored(&buf, txns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	want := "7,2025-01-01,99.90,Zomato,Food,ICICI Bank,UPI,Expense,REF42,2025-01-02T09:30:00Z"
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25.99", "25.99"},
		{"1234.5", "1234.50"},
		{"0", ""},
		{"2500", "2500.00"},
	}

	for _, tt := range tests {
		got := formatAmount(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("formatAmount(%s): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
