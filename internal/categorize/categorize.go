// Package categorize maps a merchant name to a spending category label.
package categorize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Other is returned when no rule matches.
const Other = "Other"

// Categorizer assigns a category label to a merchant.
type Categorizer interface {
	Categorize(merchant string) (string, error)
}

// Rule assigns Category when any keyword occurs in the normalized merchant.
type Rule struct {
	Category string
	Keywords []string
}

// defaultRules are scanned in order; earlier rules win.
var defaultRules = []Rule{
	{"Food", []string{"swiggy", "zomato", "dominos", "mcdonald", "kfc", "pizza", "cafe", "coffee", "restaurant", "bakery", "dineout", "eatclub"}},
	{"Groceries", []string{"bigbasket", "blinkit", "zepto", "grofers", "dmart", "jiomart", "reliance fresh", "kirana", "grocery", "supermarket", "store"}},
	{"Shopping", []string{"amazon", "flipkart", "myntra", "ajio", "nykaa", "meesho", "tatacliq", "croma", "decathlon", "ikea"}},
	{"Transport", []string{"uber", "ola", "rapido", "metro", "fastag", "parking", "redbus", "namma yatri"}},
	{"Fuel", []string{"petrol", "fuel", "indian oil", "iocl", "bharat petroleum", "bpcl", "hpcl", "shell"}},
	{"Travel", []string{"irctc", "makemytrip", "goibibo", "cleartrip", "indigo", "air india", "vistara", "oyo", "hotel", "airbnb"}},
	{"Bills & Utilities", []string{"airtel", "jio", "vodafone", "vi ", "bsnl", "electricity", "bescom", "tata power", "broadband", "gas", "water", "recharge", "bill"}},
	{"Entertainment", []string{"netflix", "hotstar", "spotify", "prime video", "bookmyshow", "pvr", "inox", "sonyliv", "zee"}},
	{"Health", []string{"pharmacy", "apollo", "medplus", "netmeds", "pharmeasy", "hospital", "clinic", "diagnostic"}},
	{"Education", []string{"school", "college", "university", "byju", "unacademy", "udemy", "coursera", "tuition"}},
	{"Transfers", []string{"neft", "imps", "rtgs", "self", "transfer"}},
}

// KeywordCategorizer is a rule-table Categorizer.
// It is safe for concurrent use.
type KeywordCategorizer struct {
	rules []Rule
}

// Option configures a KeywordCategorizer.
type Option func(*KeywordCategorizer)

// WithRules puts custom rules ahead of the built-in table.
func WithRules(rules ...Rule) Option {
	return func(c *KeywordCategorizer) {
		c.rules = append(append([]Rule{}, rules...), c.rules...)
	}
}

// NewKeywordCategorizer returns a categorizer seeded with the built-in rules.
func NewKeywordCategorizer(opts ...Option) *KeywordCategorizer {
	c := &KeywordCategorizer{rules: defaultRules}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var nonLetters = regexp.MustCompile(`[^a-z\s]`)

// normalize lower-cases and keeps only ASCII letters and spaces, collapsing runs
// of whitespace. A Caser holds state, so each call gets its own.
func normalize(merchant string) string {
	s := nonLetters.ReplaceAllString(cases.Lower(language.Und).String(merchant), "")
	return strings.Join(strings.Fields(s), " ")
}

// Categorize returns the first matching rule's category, or Other. A merchant
// with no letters (a phone number payee, say) is Other as well.
func (c *KeywordCategorizer) Categorize(merchant string) (string, error) {
	name := normalize(merchant)
	if name == "" {
		return Other, nil
	}
	// pad so keywords with a trailing space ("vi ") also match at the end
	padded := " " + name + " "
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(padded, strings.ToLower(kw)) {
				return r.Category, nil
			}
		}
	}
	return Other, nil
}
