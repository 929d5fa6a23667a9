// Package dialect models the structural parameters of a CSV document.
package dialect

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrInvalidDialect is returned by Builder.Build when the invariants do not hold
var ErrInvalidDialect = errors.New("invalid dialect")

// Dialect is the resolved set of CSV structural parameters.
// A Dialect is a value; use a Builder to derive a modified copy.
type Dialect struct {
	Delimiter        rune       `json:"delimiter" jsonschema:"required,type=string,minLength=1,maxLength=1"`
	QuoteChar        rune       `json:"quoteChar" jsonschema:"required,type=string,minLength=1,maxLength=1"`
	EscapeChar       rune       `json:"escapeChar" jsonschema:"required,type=string,minLength=1,maxLength=1"`
	DoubleQuote      bool       `json:"doubleQuote"`
	LineTerminators  []string   `json:"lineTerminators"`
	LineTerminator   string     `json:"lineTerminator" jsonschema:"required,minLength=1,maxLength=2"`
	QuoteStyle       QuoteStyle `json:"quoteStyle" jsonschema:"required,type=string,enum=none,enum=all,enum=minimal,enum=nonnumeric"`
	HasHeader        bool       `json:"hasHeader"`
	HeaderRowCount   int        `json:"headerRowCount" jsonschema:"minimum=0"`
	SkipRows         int        `json:"skipRows" jsonschema:"minimum=0"`
	SkipColumns      int        `json:"skipColumns" jsonschema:"minimum=0"`
	SkipBlankRows    bool       `json:"skipBlankRows"`
	SkipInitialSpace bool       `json:"skipInitialSpace"`
	Trim             bool       `json:"trim"`
	CommentPrefix    string     `json:"commentPrefix"`
	Encoding         string     `json:"encoding"`
}

// Default returns the RFC-4180-ish dialect used when nothing was sniffed
func Default() Dialect {
	return Dialect{
		Delimiter:       ',',
		QuoteChar:       '"',
		EscapeChar:      DefaultEscapeChar,
		DoubleQuote:     true,
		LineTerminators: []string{TerminatorCRLF, TerminatorLF},
		LineTerminator:  TerminatorLF,
		QuoteStyle:      QuoteMinimal,
		HasHeader:       true,
		HeaderRowCount:  1,
		CommentPrefix:   "#",
		Encoding:        "utf-8",
	}
}

// Terminator returns the winning line terminator, falling back to the first candidate
func (d Dialect) Terminator() string {
	if d.LineTerminator != "" {
		return d.LineTerminator
	}
	if len(d.LineTerminators) > 0 {
		return d.LineTerminators[0]
	}
	return TerminatorLF
}

// Equal reports whether two dialects carry identical parameters
func (d Dialect) Equal(other Dialect) bool {
	return d.Delimiter == other.Delimiter &&
		d.QuoteChar == other.QuoteChar &&
		d.EscapeChar == other.EscapeChar &&
		d.DoubleQuote == other.DoubleQuote &&
		slices.Equal(d.LineTerminators, other.LineTerminators) &&
		d.LineTerminator == other.LineTerminator &&
		d.QuoteStyle == other.QuoteStyle &&
		d.HasHeader == other.HasHeader &&
		d.HeaderRowCount == other.HeaderRowCount &&
		d.SkipRows == other.SkipRows &&
		d.SkipColumns == other.SkipColumns &&
		d.SkipBlankRows == other.SkipBlankRows &&
		d.SkipInitialSpace == other.SkipInitialSpace &&
		d.Trim == other.Trim &&
		d.CommentPrefix == other.CommentPrefix &&
		d.Encoding == other.Encoding
}

// Validate checks the dialect invariants
func (d Dialect) Validate() error {
	chars := []struct {
		name string
		r    rune
	}{
		{"delimiter", d.Delimiter},
		{"quoteChar", d.QuoteChar},
		{"escapeChar", d.EscapeChar},
	}
	for _, c := range chars {
		name, r := c.name, c.r
		if r == 0 || r == utf8.RuneError {
			return fmt.Errorf("%w: %s must be exactly one character", ErrInvalidDialect, name)
		}
		if strings.ContainsRune(d.Terminator(), r) {
			return fmt.Errorf("%w: %s %q collides with line terminator", ErrInvalidDialect, name, r)
		}
	}
	if d.Delimiter == d.QuoteChar || d.Delimiter == d.EscapeChar || d.QuoteChar == d.EscapeChar {
		return fmt.Errorf("%w: delimiter, quoteChar and escapeChar must be distinct", ErrInvalidDialect)
	}
	if d.CommentPrefix != "" && strings.HasPrefix(d.CommentPrefix, string(d.Delimiter)) {
		return fmt.Errorf("%w: comment prefix %q starts with the delimiter", ErrInvalidDialect, d.CommentPrefix)
	}
	if !d.QuoteStyle.Valid() {
		return fmt.Errorf("%w: quote style %d", ErrInvalidDialect, int(d.QuoteStyle))
	}
	if d.HeaderRowCount < 0 || d.SkipRows < 0 || d.SkipColumns < 0 {
		return fmt.Errorf("%w: row and column counts must not be negative", ErrInvalidDialect)
	}
	return nil
}

// Builder accumulates dialect parameters before producing an immutable Dialect
type Builder struct {
	d Dialect
}

// NewBuilder starts from the default dialect
func NewBuilder() *Builder {
	return &Builder{d: Default()}
}

// From starts a builder from an existing dialect
func From(d Dialect) *Builder {
	d.LineTerminators = slices.Clone(d.LineTerminators)
	return &Builder{d: d}
}

func (b *Builder) Delimiter(r rune) *Builder   { b.d.Delimiter = r; return b }
func (b *Builder) QuoteChar(r rune) *Builder   { b.d.QuoteChar = r; return b }
func (b *Builder) EscapeChar(r rune) *Builder  { b.d.EscapeChar = r; return b }
func (b *Builder) DoubleQuote(v bool) *Builder { b.d.DoubleQuote = v; return b }

func (b *Builder) QuoteStyle(q QuoteStyle) *Builder { b.d.QuoteStyle = q; return b }

// LineTerminator sets the winning terminator and makes sure it is listed among the candidates
func (b *Builder) LineTerminator(eol string) *Builder {
	b.d.LineTerminator = eol
	if !slices.Contains(b.d.LineTerminators, eol) {
		b.d.LineTerminators = append([]string{eol}, b.d.LineTerminators...)
	}
	return b
}

func (b *Builder) LineTerminators(eols ...string) *Builder {
	b.d.LineTerminators = slices.Clone(eols)
	return b
}

// Header sets header presence; a header implies one header row unless set otherwise
func (b *Builder) Header(has bool) *Builder {
	b.d.HasHeader = has
	switch {
	case has && b.d.HeaderRowCount == 0:
		b.d.HeaderRowCount = 1
	case !has:
		b.d.HeaderRowCount = 0
	}
	return b
}

func (b *Builder) HeaderRowCount(n int) *Builder {
	b.d.HeaderRowCount = n
	b.d.HasHeader = n > 0
	return b
}

func (b *Builder) SkipRows(n int) *Builder          { b.d.SkipRows = n; return b }
func (b *Builder) SkipColumns(n int) *Builder       { b.d.SkipColumns = n; return b }
func (b *Builder) SkipBlankRows(v bool) *Builder    { b.d.SkipBlankRows = v; return b }
func (b *Builder) SkipInitialSpace(v bool) *Builder { b.d.SkipInitialSpace = v; return b }
func (b *Builder) Trim(v bool) *Builder             { b.d.Trim = v; return b }
func (b *Builder) CommentPrefix(p string) *Builder  { b.d.CommentPrefix = p; return b }
func (b *Builder) Encoding(enc string) *Builder     { b.d.Encoding = enc; return b }

// Build validates and returns a copy of the accumulated dialect
func (b *Builder) Build() (Dialect, error) {
	d := b.d
	d.LineTerminators = slices.Clone(b.d.LineTerminators)
	if d.EscapeChar == 0 {
		d.EscapeChar = DefaultEscapeChar
	}
	if err := d.Validate(); err != nil {
		return Dialect{}, err
	}
	return d, nil
}
