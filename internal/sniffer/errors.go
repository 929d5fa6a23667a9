package sniffer

import (
	"errors"
	"fmt"
)

var (
	// ErrSampleEmpty is returned when there is no sample text to analyze
	ErrSampleEmpty = errors.New("sample is empty")

	// ErrDelimiterIndeterminate is returned when no candidate delimiter shows a usable signal
	ErrDelimiterIndeterminate = errors.New("delimiter cannot be determined")

	// ErrQuoteAndDelimiterIndeterminate is returned when no quote/delimiter adjacency pattern matches
	ErrQuoteAndDelimiterIndeterminate = errors.New("quote character and delimiter cannot be determined")
)

// Signal names the dialect parameter a sniffer was trying to determine
type Signal string

const (
	SignalSample         Signal = "sample"
	SignalLineTerminator Signal = "line_terminator"
	SignalDelimiter      Signal = "delimiter"
	SignalQuoteDelimiter Signal = "quote_delimiter"
	SignalQuoteStyle     Signal = "quote_style"
	SignalHeader         Signal = "header"
)

// SniffError reports which signal could not be determined so callers can supply it and retry
type SniffError struct {
	Signal Signal
	Err    error
}

func (e *SniffError) Error() string {
	return fmt.Sprintf("sniff %s: %v", e.Signal, e.Err)
}

func (e *SniffError) Unwrap() error {
	return e.Err
}

func sniffErr(signal Signal, err error) error {
	return &SniffError{Signal: signal, Err: err}
}
