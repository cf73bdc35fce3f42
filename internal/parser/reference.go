package parser

import "regexp"

const referenceLabel = `(?:Ref\s?No|Txn\s?ID|Reference|Ref|UPI)`

// referencePattern captures the token after a reference label. Labels can be
// stacked ("UPI Ref 1234", "UPI Ref No: 1234"); the token is whatever follows
// the last one. A dot straight after a label ("Ref No.") is skipped. A token
// written straight after its label ("Ref123456") must start with a digit, so
// words like "Refund" are not split.
var referencePattern = regexp.MustCompile(
	`(?i)(?:` + referenceLabel + `\b\.?\s?[:\-]?\s?)*` +
		`(?:` + referenceLabel + `(\d[a-zA-Z0-9]*)` +
		`|` + referenceLabel + `\b\.?\s?[:\-]?\s?([a-zA-Z0-9]+))`,
)

// ExtractReference returns the reference token used for deduplication.
func (e *Engine) ExtractReference(clean string) (string, bool) {
	m := e.reference.FindStringSubmatch(clean)
	if m == nil {
		return "", false
	}
	for _, tok := range m[1:] {
		if tok != "" {
			return tok, true
		}
	}
	return "", false
}
