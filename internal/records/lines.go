// Package records assembles physical lines into logical CSV records and splits them into fields.
package records

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// maxLineBytes bounds a single physical line read by ScannerLines
const maxLineBytes = 4 * 1024 * 1024

// LineSource hands out physical lines without their terminator.
// NextLine returns io.EOF once the source is exhausted. A positive max caps the
// line at max characters; the rest is returned by the following call.
type LineSource interface {
	NextLine(max int) (string, error)
}

// StringLines serves the lines of an in-memory text
type StringLines struct {
	lines []string
	pos   int
	rest  string
}

// NewStringLines splits text on eol, or on any of CRLF, LF and CR when eol is empty.
// A trailing terminator does not produce an extra empty line.
func NewStringLines(text, eol string) *StringLines {
	if eol == "" {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		eol = "\n"
	}
	var lines []string
	if text != "" {
		lines = strings.Split(strings.TrimSuffix(text, eol), eol)
	}
	return &StringLines{lines: lines}
}

func (s *StringLines) NextLine(max int) (string, error) {
	if s.rest != "" {
		line := s.rest
		s.rest = ""
		return s.cap(line, max), nil
	}
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return s.cap(line, max), nil
}

func (s *StringLines) cap(line string, max int) string {
	head, rest := splitAtRunes(line, max)
	s.rest = rest
	return head
}

// ScannerLines reads lines from an io.Reader
type ScannerLines struct {
	scanner *bufio.Scanner
	rest    string
	err     error
}

// NewScannerLines reads lines terminated by eol, or by any of CRLF, LF and CR when eol is empty
func NewScannerLines(r io.Reader, eol string) *ScannerLines {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(splitOn(eol))
	return &ScannerLines{scanner: scanner}
}

func (s *ScannerLines) NextLine(max int) (string, error) {
	if s.rest != "" {
		line := s.rest
		s.rest = ""
		head, rest := splitAtRunes(line, max)
		s.rest = rest
		return head, nil
	}
	if s.err != nil {
		return "", s.err
	}
	if !s.scanner.Scan() {
		s.err = s.scanner.Err()
		if s.err == nil {
			s.err = io.EOF
		}
		return "", s.err
	}
	head, rest := splitAtRunes(s.scanner.Text(), max)
	s.rest = rest
	return head, nil
}

// splitOn builds a bufio.SplitFunc that breaks on eol
func splitOn(eol string) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if eol != "" {
			if i := bytes.Index(data, []byte(eol)); i >= 0 {
				return i + len(eol), data[:i], nil
			}
		} else if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			if data[i] == '\n' {
				return i + 1, data[:i], nil
			}
			// a CR at the end of the buffer may be the first half of a CRLF
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			return 0, nil, nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// splitAtRunes cuts s after max runes; max <= 0 means no limit
func splitAtRunes(s string, max int) (string, string) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], s[i:]
		}
		n++
	}
	return s, ""
}
