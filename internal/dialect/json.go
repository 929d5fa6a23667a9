package dialect

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// wireDialect is the JSON shape of a Dialect: characters travel as one-character strings
type wireDialect struct {
	Delimiter        string     `json:"delimiter"`
	QuoteChar        string     `json:"quoteChar"`
	EscapeChar       string     `json:"escapeChar"`
	DoubleQuote      bool       `json:"doubleQuote"`
	LineTerminators  []string   `json:"lineTerminators"`
	LineTerminator   string     `json:"lineTerminator"`
	QuoteStyle       QuoteStyle `json:"quoteStyle"`
	HasHeader        bool       `json:"hasHeader"`
	HeaderRowCount   int        `json:"headerRowCount"`
	SkipRows         int        `json:"skipRows"`
	SkipColumns      int        `json:"skipColumns"`
	SkipBlankRows    bool       `json:"skipBlankRows"`
	SkipInitialSpace bool       `json:"skipInitialSpace"`
	Trim             bool       `json:"trim"`
	CommentPrefix    string     `json:"commentPrefix"`
	Encoding         string     `json:"encoding"`
}

// MarshalJSON encodes single characters as strings rather than code points
func (d Dialect) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDialect{
		Delimiter:        string(d.Delimiter),
		QuoteChar:        string(d.QuoteChar),
		EscapeChar:       string(d.EscapeChar),
		DoubleQuote:      d.DoubleQuote,
		LineTerminators:  d.LineTerminators,
		LineTerminator:   d.LineTerminator,
		QuoteStyle:       d.QuoteStyle,
		HasHeader:        d.HasHeader,
		HeaderRowCount:   d.HeaderRowCount,
		SkipRows:         d.SkipRows,
		SkipColumns:      d.SkipColumns,
		SkipBlankRows:    d.SkipBlankRows,
		SkipInitialSpace: d.SkipInitialSpace,
		Trim:             d.Trim,
		CommentPrefix:    d.CommentPrefix,
		Encoding:         d.Encoding,
	})
}

// UnmarshalJSON decodes a Dialect; omitted fields keep the Default values
func (d *Dialect) UnmarshalJSON(data []byte) error {
	def := Default()
	w := wireDialect{
		Delimiter:       string(def.Delimiter),
		QuoteChar:       string(def.QuoteChar),
		EscapeChar:      string(def.EscapeChar),
		DoubleQuote:     def.DoubleQuote,
		LineTerminators: def.LineTerminators,
		LineTerminator:  def.LineTerminator,
		QuoteStyle:      def.QuoteStyle,
		HasHeader:       def.HasHeader,
		HeaderRowCount:  def.HeaderRowCount,
		CommentPrefix:   def.CommentPrefix,
		Encoding:        def.Encoding,
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var err error
	out := Dialect{
		DoubleQuote:      w.DoubleQuote,
		LineTerminators:  w.LineTerminators,
		LineTerminator:   w.LineTerminator,
		QuoteStyle:       w.QuoteStyle,
		HasHeader:        w.HasHeader,
		HeaderRowCount:   w.HeaderRowCount,
		SkipRows:         w.SkipRows,
		SkipColumns:      w.SkipColumns,
		SkipBlankRows:    w.SkipBlankRows,
		SkipInitialSpace: w.SkipInitialSpace,
		Trim:             w.Trim,
		CommentPrefix:    w.CommentPrefix,
		Encoding:         w.Encoding,
	}
	if out.Delimiter, err = SingleRune("delimiter", w.Delimiter); err != nil {
		return err
	}
	if out.QuoteChar, err = SingleRune("quoteChar", w.QuoteChar); err != nil {
		return err
	}
	if out.EscapeChar, err = SingleRune("escapeChar", w.EscapeChar); err != nil {
		return err
	}
	*d = out
	return nil
}

// SingleRune converts a one-character string into a rune
func SingleRune(field, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %s must be exactly one character, got %q", ErrInvalidDialect, field, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
