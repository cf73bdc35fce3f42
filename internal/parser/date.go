package parser

import (
	"regexp"
	"strings"
	"time"
)

const monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

// dateCandidatePattern locates one date-shaped substring:
// 05-11-2024, 5/11/24, 05.11.2024, 05-Nov-2024, 2024-11-05, 05 November 2024.
var dateCandidatePattern = regexp.MustCompile(
	`(?i)(\d{1,2}[-/.](?:\d{1,2}|` + monthNames + `)[-/.]\d{2,4}` +
		`|\d{4}-\d{2}-\d{2}` +
		`|\d{1,2}\s+` + monthNames + `\s+\d{2,4})`,
)

// dateLayouts are tried in order; the first that parses wins. Two-digit-year
// forms come last so they never shadow a four-digit match.
var dateLayouts = []string{
	"2-1-2006", // DD-MM-YYYY
	"2/1/2006", // DD/MM/YYYY
	"2.1.2006", // DD.MM.YYYY
	"2006-01-02",
	"2-Jan-2006",
	"2-January-2006",
	"2 Jan 2006",
	"2 January 2006",
	"2/Jan/2006",
	"2.Jan.2006",
	"2-1-06",
	"2/1/06",
	"2.1.06",
	"2-Jan-06",
	"2 Jan 06",
	"2/Jan/06",
}

// ResolveDate finds the first date-shaped substring and re-emits it as
// YYYY-MM-DD. Only one candidate is considered; if no layout accepts it the
// date is left unset.
func (e *Engine) ResolveDate(clean string) (string, bool) {
	candidate := e.date.FindString(clean)
	if candidate == "" {
		return "", false
	}
	t, ok := parseDate(candidate, e.dateLayouts)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
