package sniffer

import (
	"strings"
	"unicode/utf8"

	"github.com/kosarica/dialect-service/internal/dialect"
)

// quotedClass describes why a quoted field was quoted
type quotedClass int

const (
	// classSpecial fields contain a delimiter, terminator or quote and needed quoting
	classSpecial quotedClass = iota
	// classNonNumeric fields are plain text that did not need quoting
	classNonNumeric
	// classNumeric fields are numbers that did not need quoting
	classNumeric
)

// QuoteStyleSniffer classifies the quoting policy of a sample
type QuoteStyleSniffer struct{}

// NewQuoteStyleSniffer creates a quote style sniffer
func NewQuoteStyleSniffer() *QuoteStyleSniffer {
	return &QuoteStyleSniffer{}
}

// Sniff inspects which fields are quoted and what they contain.
// Every field quoted is ALL, no field quoted is NONE. Otherwise quoted fields
// that needed quoting point to MINIMAL and plain quoted text to NONNUMERIC;
// when both appear NONNUMERIC wins unless the two classes are evenly split.
func (s *QuoteStyleSniffer) Sniff(sample string, quote, delim rune, eol string) dialect.QuoteStyle {
	masked := NewMasker(quote).Mask(sample, delim, eol)

	var quotedFields, unquotedFields int
	classes := make(map[quotedClass]int)

	for _, line := range splitLines(masked, eol) {
		if line == "" {
			continue
		}
		for _, field := range strings.Split(line, string(delim)) {
			if !isQuoted(field, quote) {
				unquotedFields++
				continue
			}
			quotedFields++
			classes[classify(unquote(field, quote), quote)]++
		}
	}

	switch {
	case quotedFields == 0 && unquotedFields == 0:
		return dialect.QuoteMinimal
	case unquotedFields == 0:
		return dialect.QuoteAll
	case quotedFields == 0:
		return dialect.QuoteNone
	}

	special, plain, numeric := classes[classSpecial], classes[classNonNumeric], classes[classNumeric]
	switch {
	case numeric > 0:
		// quoted numbers next to unquoted fields fit no stricter policy
		return dialect.QuoteMinimal
	case plain == 0:
		return dialect.QuoteMinimal
	case special == 0:
		return dialect.QuoteNonNumeric
	case min(special, plain) < max(special, plain):
		return dialect.QuoteNonNumeric
	default:
		return dialect.QuoteMinimal
	}
}

func classify(value string, quote rune) quotedClass {
	switch {
	case strings.Contains(value, DelimPlaceholder),
		strings.Contains(value, NewlinePlaceholder),
		strings.ContainsRune(value, quote):
		return classSpecial
	case IsNumeric(value):
		return classNumeric
	default:
		return classNonNumeric
	}
}

// isQuoted reports whether field starts and ends with quote
func isQuoted(field string, quote rune) bool {
	if utf8.RuneCountInString(field) < 2 {
		return false
	}
	q := string(quote)
	return strings.HasPrefix(field, q) && strings.HasSuffix(field, q)
}

// unquote strips one pair of surrounding quotes
func unquote(field string, quote rune) string {
	if !isQuoted(field, quote) {
		return field
	}
	n := utf8.RuneLen(quote)
	return field[n : len(field)-n]
}
