// Package parser extracts structured transactions from bank notification text.
//
// An Engine owns a fixed table of compiled patterns built once by New. The table
// is never modified afterwards, so a single Engine may serve any number of
// concurrent Parse calls.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// Engine runs the extraction pipeline over a message body.
type Engine struct {
	noise *regexp.Regexp

	action   *regexp.Regexp
	currency *regexp.Regexp
	credit   *regexp.Regexp

	amount    *regexp.Regexp
	reference *regexp.Regexp

	date        *regexp.Regexp
	dateLayouts []string

	merchant []merchantStrategy
	vpa      *regexp.Regexp

	banks []bankRule
}

// New compiles the pattern table.
func New() *Engine {
	return &Engine{
		noise:       noisePattern,
		action:      actionPattern,
		currency:    currencyPattern,
		credit:      creditPattern,
		amount:      amountPattern,
		reference:   referencePattern,
		date:        dateCandidatePattern,
		dateLayouts: dateLayouts,
		merchant:    merchantCascade(),
		vpa:         vpaPattern,
		banks:       bankRules,
	}
}

// Parse turns a message body into a transaction record. The second result is
// false when the text does not look like a transaction at all; that is a normal
// outcome, not a failure. Parse never fails on any input.
//
// sender selects the bank. timestamp is copied to the record for the caller and
// plays no part in date extraction.
func (e *Engine) Parse(body, sender string, timestamp time.Time) (models.ParsedTransaction, bool) {
	clean := e.CleanBody(body)
	if !e.IsCandidate(clean) {
		return models.ParsedTransaction{}, false
	}

	var ref, date *string
	if r, ok := e.ExtractReference(clean); ok {
		ref = &r
	}
	if d, ok := e.ResolveDate(clean); ok {
		date = &d
	}
	merchant, found := e.ResolveMerchant(clean)

	return assemble(fields{
		txnType:    e.ClassifyType(clean),
		amount:     e.ExtractAmount(clean),
		reference:  ref,
		merchant:   merchant,
		resolved:   found,
		date:       date,
		bank:       e.DetectBank(sender, body),
		raw:        body,
		receivedAt: timestamp,
	}), true
}

// ParseMessage is Parse over a Message.
func (e *Engine) ParseMessage(msg models.Message) (models.ParsedTransaction, bool) {
	return e.Parse(msg.Body, msg.Sender, msg.Timestamp)
}

// noisePattern removes footers that never carry transaction data. Each
// alternative runs to the end of its line.
var noisePattern = regexp.MustCompile(
	`(?i)(Not you\?.*|SMS BLOCK.*|Call 1800.*|Dial 1930.*|Balance enquiry.*)`,
)

// CleanBody strips boilerplate and surrounding whitespace. It is idempotent.
func (e *Engine) CleanBody(body string) string {
	return strings.TrimSpace(e.noise.ReplaceAllString(body, ""))
}
