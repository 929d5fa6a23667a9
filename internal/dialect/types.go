package dialect

import (
	"fmt"
	"strings"
)

// QuoteStyle represents which fields of a record are wrapped in quote characters
type QuoteStyle int

const (
	QuoteNone       QuoteStyle = 0
	QuoteAll        QuoteStyle = 1
	QuoteMinimal    QuoteStyle = 2
	QuoteNonNumeric QuoteStyle = 3
)

var quoteStyleNames = map[QuoteStyle]string{
	QuoteNone:       "none",
	QuoteAll:        "all",
	QuoteMinimal:    "minimal",
	QuoteNonNumeric: "nonnumeric",
}

// Valid reports whether q is one of the four known quoting styles
func (q QuoteStyle) Valid() bool {
	_, ok := quoteStyleNames[q]
	return ok
}

func (q QuoteStyle) String() string {
	if name, ok := quoteStyleNames[q]; ok {
		return name
	}
	return fmt.Sprintf("QuoteStyle(%d)", int(q))
}

// MarshalText encodes the quoting style by name
func (q QuoteStyle) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("invalid quote style %d", int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText accepts the style name (case-insensitive) or its numeric value
func (q *QuoteStyle) UnmarshalText(text []byte) error {
	style, err := ParseQuoteStyle(string(text))
	if err != nil {
		return err
	}
	*q = style
	return nil
}

// ParseQuoteStyle parses a quoting style name such as "minimal" or "3"
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for style, name := range quoteStyleNames {
		if s == name || s == fmt.Sprint(int(style)) {
			return style, nil
		}
	}
	return QuoteNone, fmt.Errorf("unknown quote style %q", s)
}

// Line terminators recognised by the sniffer
const (
	TerminatorCRLF = "\r\n"
	TerminatorLF   = "\n"
	TerminatorCR   = "\r"
)

// DefaultEscapeChar is used whenever no escape character was configured
const DefaultEscapeChar = '\\'
