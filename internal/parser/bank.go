package parser

import (
	"strings"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// bankRule maps a sender-id fragment to a bank label.
type bankRule struct {
	pattern string
	label   string
}

// bankRules are checked top to bottom; the first fragment contained in the
// upper-cased sender wins.
var bankRules = []bankRule{
	{"HDFC", "HDFC Bank"},
	{"SBI", "SBI"}, // also covers SBIN sender ids
	{"ICICI", "ICICI Bank"},
	{"AXIS", "Axis Bank"},
	{"KOTAK", "Kotak Bank"},
	{"PAYTM", "Paytm Bank"},
}

// DetectBank names the bank behind a sender id such as "VM-HDFCBK". The body
// is accepted for future use and currently ignored.
func (e *Engine) DetectBank(sender, body string) string {
	s := strings.ToUpper(sender)
	for _, r := range e.banks {
		if strings.Contains(s, r.pattern) {
			return r.label
		}
	}
	return models.UnknownBank
}
