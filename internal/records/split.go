package records

import (
	"strings"

	"github.com/kosarica/dialect-service/internal/dialect"
)

// SplitRecord splits a logical record into fields.
//
// A quote character toggles quoting anywhere in a field. Inside quotes a
// doubled quote is a literal quote when the dialect allows it, and the escape
// character makes the next quote, delimiter or escape literal. Terminators
// inside quotes are kept as data.
func SplitRecord(record string, d dialect.Dialect) []string {
	fields := make([]string, 0, 10)
	var current strings.Builder
	inQuotes := false
	atFieldStart := true

	runes := []rune(record)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if d.EscapeChar != 0 && r == d.EscapeChar && i+1 < len(runes) {
			next := runes[i+1]
			if next == d.QuoteChar || next == d.EscapeChar || next == d.Delimiter {
				current.WriteRune(next)
				i++
				atFieldStart = false
				continue
			}
		}

		if inQuotes {
			if r == d.QuoteChar {
				if d.DoubleQuote && i+1 < len(runes) && runes[i+1] == d.QuoteChar {
					current.WriteRune(r)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			current.WriteRune(r)
			continue
		}

		switch {
		case r == d.Delimiter:
			fields = append(fields, finishField(current.String(), d))
			current.Reset()
			atFieldStart = true
			continue
		case atFieldStart && d.SkipInitialSpace && r == ' ':
			continue
		case r == d.QuoteChar:
			inQuotes = true
		default:
			current.WriteRune(r)
		}
		atFieldStart = false
	}

	return append(fields, finishField(current.String(), d))
}

func finishField(value string, d dialect.Dialect) string {
	if d.Trim {
		return strings.TrimSpace(value)
	}
	return value
}
