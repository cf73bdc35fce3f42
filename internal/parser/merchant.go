package parser

import (
	"regexp"
	"strings"
)

// nameChars is the alphabet a counterparty name may use.
const nameChars = `[a-zA-Z0-9\s&.@/\-()]`

// Merchant strategies, most specific wording first. The generic "to"/"from"
// forms happily swallow trailing boilerplate, so they only run when the
// bounded forms found nothing.
var (
	// "Sent Rs.500 to Sharma Store"
	sentToPattern = regexp.MustCompile(`(?i)Sent\s+(?:Rs\.?|INR)\.?\s*[\d,]+\s+to\s+(` + nameChars + `+)`)
	// "spent at AMAZON on ...", "to Swiggy via UPI", "to Zomato ref 123"
	cardPattern = regexp.MustCompile(`(?i)(?:at|to)\s+(` + nameChars + `+?)\s+(?:on|via|ref|UPI|\.|$)`)
	// "to Ramesh Kumar"
	payeePattern = regexp.MustCompile(`(?i)(?:to|at)\s+(` + nameChars + `+)`)
	// "credited by NEFT from ACME LTD"
	payerPattern = regexp.MustCompile(`(?i)(?:from|by)\s+(` + nameChars + `+)`)

	// vpaPattern finds a UPI address such as "shop.owner@okaxis".
	vpaPattern = regexp.MustCompile(`([a-zA-Z0-9.\-_]+@[a-zA-Z]+)`)
)

// merchantStrategy captures a counterparty with one pattern.
type merchantStrategy struct {
	name string
	re   *regexp.Regexp
}

func merchantCascade() []merchantStrategy {
	return []merchantStrategy{
		{name: "sent_to", re: sentToPattern},
		{name: "card", re: cardPattern},
		{name: "payee", re: payeePattern},
		{name: "payer", re: payerPattern},
	}
}

// capture returns the cleaned first group, or false when the pattern misses
// or leaves nothing after cleaning.
func (s merchantStrategy) capture(text string) (string, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := cleanRecipient(m[1])
	return name, name != ""
}

// ResolveMerchant walks the strategy cascade and stops at the first hit. When
// every strategy misses, the local part of a UPI address is used. The second
// result is false when nothing was found; callers report UnknownMerchant.
func (e *Engine) ResolveMerchant(clean string) (string, bool) {
	for _, s := range e.merchant {
		if name, ok := s.capture(clean); ok {
			return name, true
		}
	}
	if vpa := e.vpa.FindString(clean); vpa != "" {
		if name := cleanRecipient(vpa); name != "" {
			return name, true
		}
	}
	return "", false
}

// cleanRecipient drops an "@handle" suffix and surrounding whitespace.
func cleanRecipient(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
