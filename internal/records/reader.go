package records

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/dialect"
)

// Reader reads records of a known dialect.
// Leading rows, comment rows, blank rows, leading columns and header rows are
// handled according to the dialect.
type Reader struct {
	dialect    dialect.Dialect
	asm        *Assembler
	headerRows [][]string
	started    bool
	record     int
}

// NewReader decodes r from the dialect's encoding and reads records from it
func NewReader(r io.Reader, d dialect.Dialect) (*Reader, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	decoded, err := charset.ToUTF8Reader(r, charset.Normalize(d.Encoding))
	if err != nil {
		return nil, fmt.Errorf("reader encoding: %w", err)
	}
	return NewLineReader(NewScannerLines(decoded, d.Terminator()), d), nil
}

// NewLineReader reads records from an existing line source
func NewLineReader(src LineSource, d dialect.Dialect) *Reader {
	return &Reader{
		dialect: d,
		asm:     NewAssembler(src, d.QuoteChar, d.EscapeChar, d.Terminator()),
	}
}

// Dialect returns the dialect records are read with
func (r *Reader) Dialect() dialect.Dialect {
	return r.dialect
}

// Header returns the first header row, or nil when the dialect has no header
func (r *Reader) Header() ([]string, error) {
	if err := r.start(); err != nil {
		return nil, err
	}
	if len(r.headerRows) == 0 {
		return nil, nil
	}
	return r.headerRows[0], nil
}

// HeaderRows returns every header row
func (r *Reader) HeaderRows() ([][]string, error) {
	if err := r.start(); err != nil {
		return nil, err
	}
	return r.headerRows, nil
}

// Read returns the next data record, or io.EOF when there are none left
func (r *Reader) Read() ([]string, error) {
	if err := r.start(); err != nil {
		return nil, err
	}
	return r.next()
}

// ReadAll reads every remaining data record
func (r *Reader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Record returns the number of logical records consumed so far, skipped ones included
func (r *Reader) Record() int {
	return r.record
}

func (r *Reader) start() error {
	if r.started {
		return nil
	}
	r.started = true

	for i := 0; i < r.dialect.SkipRows; i++ {
		if _, err := r.nextRaw(); err != nil {
			if errors.Is(err, ErrEndOfSource) {
				return nil
			}
			return err
		}
	}

	if !r.dialect.HasHeader {
		return nil
	}
	for len(r.headerRows) < max(r.dialect.HeaderRowCount, 1) {
		fields, err := r.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		r.headerRows = append(r.headerRows, fields)
	}
	return nil
}

// next returns the next record that is neither a comment nor a skipped blank row
func (r *Reader) next() ([]string, error) {
	for {
		raw, err := r.nextRaw()
		if errors.Is(err, ErrEndOfSource) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		if p := r.dialect.CommentPrefix; p != "" && strings.HasPrefix(raw, p) {
			continue
		}
		if strings.TrimSpace(raw) == "" && r.dialect.SkipBlankRows {
			continue
		}

		fields := SplitRecord(raw, r.dialect)
		if n := r.dialect.SkipColumns; n > 0 {
			if n >= len(fields) {
				fields = fields[:0]
			} else {
				fields = fields[n:]
			}
		}
		return fields, nil
	}
}

func (r *Reader) nextRaw() (string, error) {
	raw, err := r.asm.Next()
	if err != nil {
		return "", err
	}
	r.record++
	return raw, nil
}
