package sniffer

import (
	"strings"
	"unicode/utf8"
)

// headerComparisonRows is how many data rows are compared against the first row
const headerComparisonRows = 10

// FieldProfile is the type and length of one field
type FieldProfile struct {
	Type   DataType
	Length int
}

// HeaderSniffer decides whether the first row of a sample is a header
type HeaderSniffer struct{}

// NewHeaderSniffer creates a header sniffer
func NewHeaderSniffer() *HeaderSniffer {
	return &HeaderSniffer{}
}

// Sniff compares the profile of row 0 with up to ten following rows.
//
// For each field of each data row: when the header field is a generic string
// a different length counts for a header and an equal length against it;
// otherwise a different type counts for a header and an equal type against it.
// The first row is a header iff the total is positive.
func (s *HeaderSniffer) Sniff(sample string, quote, delim rune, eol string) bool {
	header, rows := s.profiles(sample, quote, delim, eol)
	if len(header) == 0 {
		return false
	}

	score := 0
	for _, row := range rows {
		for col, field := range row {
			if col >= len(header) {
				break
			}
			h := header[col]
			var headerLike bool
			if h.Type == TypeString {
				headerLike = field.Length != h.Length
			} else {
				headerLike = field.Type != h.Type
			}
			if headerLike {
				score++
			} else {
				score--
			}
		}
	}
	return score > 0
}

// profiles returns the header profile and the profiles of the comparison rows
func (s *HeaderSniffer) profiles(sample string, quote, delim rune, eol string) ([]FieldProfile, [][]FieldProfile) {
	masked := NewMasker(quote).Mask(sample, delim, eol)
	lines := splitLines(masked, eol)

	// the last line is most likely cut short by the sample size
	if len(lines) > 2 || (len(lines) == 2 && lines[1] == "") {
		lines = lines[:len(lines)-1]
	}

	var header []FieldProfile
	rows := make([][]FieldProfile, 0, headerComparisonRows)
	for _, line := range lines {
		if line == "" {
			continue
		}
		profile := profileLine(line, quote, delim, eol)
		if header == nil {
			header = profile
			continue
		}
		rows = append(rows, profile)
		if len(rows) == headerComparisonRows {
			break
		}
	}
	return header, rows
}

func profileLine(line string, quote, delim rune, eol string) []FieldProfile {
	fields := strings.Split(line, string(delim))
	out := make([]FieldProfile, len(fields))
	for i, f := range fields {
		value := unescapeQuotes(unquote(Restore(f, delim, eol), quote), quote)
		out[i] = FieldProfile{
			Type:   DetectType(value),
			Length: utf8.RuneCountInString(value),
		}
	}
	return out
}

// unescapeQuotes collapses doubled quote characters
func unescapeQuotes(value string, quote rune) string {
	q := string(quote)
	return strings.ReplaceAll(value, q+q, q)
}
