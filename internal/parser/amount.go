package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern captures the number right after a currency marker,
// e.g. "Rs.1,234.56", "INR 200", "Rs 99.5".
var amountPattern = regexp.MustCompile(`(?i)(?:Rs\.?|INR)\.?\s*([\d,]+(?:\.\d{1,2})?)`)

// ExtractAmount returns the first currency-prefixed amount, or zero.
func (e *Engine) ExtractAmount(clean string) decimal.Decimal {
	m := e.amount.FindStringSubmatch(clean)
	if m == nil {
		return decimal.Zero
	}
	return parseAmount(m[1])
}

// parseAmount converts "1,234.56" to a two-place decimal. Anything that is
// left empty or unparseable after removing separators is zero.
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}
