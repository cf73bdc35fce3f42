package parser

import (
	"regexp"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// Tokens are matched anywhere in the text, not only as whole words.
var (
	actionPattern = regexp.MustCompile(
		`(?i)(debited|credited|paid|spent|received|sent|transfer|withdrawn|txn|transaction|UPI/DR|UPI/CR|DR|CR)`,
	)
	currencyPattern = regexp.MustCompile(`(?i)(Rs\.?|INR)`)

	creditPattern = regexp.MustCompile(`(?i)(credited|received|UPI/CR|\bCR\b)`)
)

// IsCandidate reports whether the text has both an action token and a
// currency marker.
func (e *Engine) IsCandidate(clean string) bool {
	return e.action.MatchString(clean) && e.currency.MatchString(clean)
}

// ClassifyType returns Income when any credit token is present, Expense otherwise.
func (e *Engine) ClassifyType(clean string) models.TransactionType {
	if e.credit.MatchString(clean) {
		return models.Income
	}
	return models.Expense
}
