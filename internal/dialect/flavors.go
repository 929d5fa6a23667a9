package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownFlavor is returned when a named preset does not exist
var ErrUnknownFlavor = errors.New("unknown flavor")

// Excel is the dialect written by Microsoft Excel
func Excel() Dialect {
	return Dialect{
		Delimiter:       ',',
		QuoteChar:       '"',
		EscapeChar:      DefaultEscapeChar,
		DoubleQuote:     true,
		LineTerminators: []string{TerminatorCRLF},
		LineTerminator:  TerminatorCRLF,
		QuoteStyle:      QuoteMinimal,
		HasHeader:       true,
		HeaderRowCount:  1,
		Encoding:        "utf-8",
	}
}

// ExcelTab is Excel with tab separated fields
func ExcelTab() Dialect {
	d := Excel()
	d.Delimiter = '\t'
	return d
}

// Unix quotes every non-numeric field and escapes quotes with a backslash
func Unix() Dialect {
	return Dialect{
		Delimiter:       ',',
		QuoteChar:       '"',
		EscapeChar:      DefaultEscapeChar,
		DoubleQuote:     false,
		LineTerminators: []string{TerminatorLF},
		LineTerminator:  TerminatorLF,
		QuoteStyle:      QuoteNonNumeric,
		HasHeader:       true,
		HeaderRowCount:  1,
		Encoding:        "utf-8",
	}
}

// UnixTab is Unix with tab separated fields
func UnixTab() Dialect {
	d := Unix()
	d.Delimiter = '\t'
	return d
}

var flavors = map[string]func() Dialect{
	"excel":     Excel,
	"excel-tab": ExcelTab,
	"unix":      Unix,
	"unix-tab":  UnixTab,
}

// Lookup returns a named preset
func Lookup(name string) (Dialect, error) {
	fn, ok := flavors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %s", ErrUnknownFlavor, name)
	}
	return fn(), nil
}

// FlavorNames lists the available presets in alphabetical order
func FlavorNames() []string {
	names := make([]string, 0, len(flavors))
	for name := range flavors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
