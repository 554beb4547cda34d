// Package normalize canonicalizes raw bank-statement descriptions into
// comparable lookup keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxDigitRun is the longest run of digits that survives
// normalization. Longer runs are card numbers, authorization codes and
// document ids that carry no classification signal.
const DefaultMaxDigitRun = 3

var (
	// ISO and Brazilian date fragments commonly embedded in descriptions.
	isoDateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	brDateRe  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b|\b\d{1,2}/\d{4}\b`)

	digitRunRe = regexp.MustCompile(`\d+`)

	// Standalone currency symbols, matched after tokenization.
	currencyTokens = map[string]bool{
		"$": true, "r$": true, "us$": true, "€": true, "£": true,
	}

	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalizer canonicalizes transaction descriptions. The zero value is not
// usable; construct with New.
type Normalizer struct {
	maxDigitRun int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMaxDigitRun overrides the digit-run noise threshold.
func WithMaxDigitRun(n int) Option {
	return func(nr *Normalizer) {
		if n > 0 {
			nr.maxDigitRun = n
		}
	}
}

// New creates a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{maxDigitRun: DefaultMaxDigitRun}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lower-cases, strips diacritics, removes transaction noise
// (long digit runs, date fragments, standalone currency symbols) and
// collapses whitespace. It is pure and idempotent; empty or
// whitespace-only input yields "".
func (n *Normalizer) Normalize(raw string) string {
	s := strings.ToLower(raw)

	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}

	s = isoDateRe.ReplaceAllString(s, " ")
	s = brDateRe.ReplaceAllString(s, " ")

	s = digitRunRe.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) > n.maxDigitRun {
			return " "
		}
		return run
	})

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if currencyTokens[f] {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}

// Tokens splits a normalized description into its token set for
// keyword-overlap matching.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// TokenSet returns the tokens of a normalized description as a set.
func TokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(normalized) {
		set[tok] = true
	}
	return set
}
