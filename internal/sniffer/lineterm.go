package sniffer

import (
	"strings"

	"github.com/kosarica/dialect-service/internal/dialect"
)

// neutralDelimiter is masked alongside terminators; it only has to be a character
// that does not interfere with newline counting.
const neutralDelimiter = ','

// DefaultLineTerminator is returned when a sample contains no terminator at all
const DefaultLineTerminator = dialect.TerminatorLF

// terminatorPrecedence lists terminators in tie-break order
var terminatorPrecedence = []string{dialect.TerminatorCRLF, dialect.TerminatorLF, dialect.TerminatorCR}

// LineTerminatorSniffer guesses the line terminator by counting occurrences outside quoted spans
type LineTerminatorSniffer struct {
	masker *Masker
}

// NewLineTerminatorSniffer creates a line terminator sniffer
func NewLineTerminatorSniffer(masker *Masker) *LineTerminatorSniffer {
	if masker == nil {
		masker = NewMasker()
	}
	return &LineTerminatorSniffer{masker: masker}
}

// Sniff returns the most frequent terminator. A tie keeps the earlier entry of
// CRLF, LF, CR; a sample without terminators yields DefaultLineTerminator.
func (s *LineTerminatorSniffer) Sniff(sample string) string {
	masked := s.masker.Mask(sample, neutralDelimiter, "")

	best, bestCount := DefaultLineTerminator, 0
	for _, eol := range terminatorPrecedence {
		if n := strings.Count(masked, eol); n > bestCount {
			best, bestCount = eol, n
		}
	}
	return best
}
