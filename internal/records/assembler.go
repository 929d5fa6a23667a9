package records

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrEndOfSource is returned when the line source is exhausted before any line of a record was read
var ErrEndOfSource = errors.New("end of source")

// QuoteTrackingState follows quote parity while a logical record is assembled
type QuoteTrackingState struct {
	Open         bool
	EscapeActive bool
}

// scan feeds line through the state and reports whether a quoted span is still open.
// An escaped character never toggles the quote state; escape 0 disables escaping.
func (s *QuoteTrackingState) scan(line string, quote, escape rune) bool {
	for _, c := range line {
		if s.EscapeActive {
			s.EscapeActive = false
			continue
		}
		s.EscapeActive = escape != 0 && c == escape
		if c == quote {
			s.Open = !s.Open
		}
	}
	return s.Open
}

// ReadLogicalRecord reads physical lines from src until no quoted span is left
// open, joins them with eol and trims trailing terminator characters.
// A source that runs out mid-record yields the partial record; ErrEndOfSource
// is returned only when no line was read at all.
func ReadLogicalRecord(src LineSource, quote, escape rune, eol string) (string, error) {
	record, _, err := readLogicalRecord(src, quote, escape, eol)
	return record, err
}

func readLogicalRecord(src LineSource, quote, escape rune, eol string) (string, QuoteTrackingState, error) {
	if eol == "" {
		eol = "\n"
	}

	var state QuoteTrackingState
	var lines []string
	for {
		line, err := src.NextLine(0)
		if errors.Is(err, io.EOF) {
			if len(lines) == 0 {
				return "", state, ErrEndOfSource
			}
			log.Debug().Int("lines", len(lines)).Msg("Source ended inside a quoted span")
			break
		}
		if err != nil {
			return "", state, fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimRight(line, eol)
		lines = append(lines, line)
		if !state.scan(line, quote, escape) {
			break
		}
	}
	return strings.TrimRight(strings.Join(lines, eol), eol), state, nil
}

// Assembler reads logical records from one line source.
// Quote state is rebuilt for every record; State reports how the last one ended.
type Assembler struct {
	src    LineSource
	quote  rune
	escape rune
	eol    string
	last   QuoteTrackingState
}

// NewAssembler creates an assembler over src
func NewAssembler(src LineSource, quote, escape rune, eol string) *Assembler {
	return &Assembler{src: src, quote: quote, escape: escape, eol: eol}
}

// Next returns the next logical record or ErrEndOfSource
func (a *Assembler) Next() (string, error) {
	record, state, err := readLogicalRecord(a.src, a.quote, a.escape, a.eol)
	a.last = state
	return record, err
}

// State returns the quote state at the end of the last record
func (a *Assembler) State() QuoteTrackingState {
	return a.last
}
