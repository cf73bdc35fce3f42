package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// Report is the result of parsing one message export.
type Report struct {
	Source       string
	MessagesRead int
	Transactions []models.ParsedTransaction
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the report's transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, report *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, report)
}

// Write writes parsed transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, report *Report) error {
	writer := csv.NewWriter(out)

	// Write metadata as comments (CSV header rows)
	if w.IncludeHeader {
		if report.Source != "" {
			writer.Write([]string{"# Source", report.Source})
		}
		writer.Write([]string{"# Messages Read", strconv.Itoa(report.MessagesRead)})
		writer.Write([]string{"# Transactions", strconv.Itoa(len(report.Transactions))})
	}

	header := []string{"Date", "Type", "Amount", "Merchant", "Bank", "Reference", "Valid", "Guess", "Message"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range report.Transactions {
		row := []string{
			txn.DateString(),
			string(txn.TransactionType),
			formatAmount(txn.Amount),
			txn.Merchant,
			txn.Bank,
			txn.Reference(),
			strconv.FormatBool(txn.IsValid),
			strconv.FormatBool(txn.IsGuess),
			txn.RawMessage,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteStored writes persisted transactions, newest first as given.
func (w *CSVWriter) WriteStored(out io.Writer, txns []models.StoredTransaction) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		writer.Write([]string{"# Transactions", strconv.Itoa(len(txns))})
	}

	header := []string{"ID", "Date", "Amount", "Merchant", "Category", "Bank", "Payment Mode", "Type", "Reference", "Created At"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range txns {
		row := []string{
			strconv.FormatInt(txn.ID, 10),
			txn.Date,
			formatAmount(txn.Amount),
			txn.Merchant,
			txn.Category,
			txn.Bank,
			txn.PaymentMode,
			string(txn.TransactionType),
			txn.ReferenceID,
			txn.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}
