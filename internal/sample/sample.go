// Package sample reads bounded text prefixes of documents for dialect sniffing.
package sample

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/kosarica/dialect-service/internal/charset"
)

// ErrNoSample is returned when a provider has no text to offer
var ErrNoSample = errors.New("no sample available")

// Provider hands back a bounded prefix of a document as UTF-8 text.
// maxChars <= 0 means no limit.
type Provider interface {
	ReadSample(ctx context.Context, maxChars int) (string, error)
}

// EncodingReporter is implemented by providers that decode raw bytes
type EncodingReporter interface {
	DetectedEncoding() charset.Encoding
}

// EncodingOf returns the encoding p decoded its last sample from, or "" for
// providers that hand out text directly.
func EncodingOf(p Provider) string {
	if r, ok := p.(EncodingReporter); ok {
		return string(r.DetectedEncoding())
	}
	return ""
}

// String is a Provider over in-memory text
type String string

// ReadSample returns up to maxChars characters of s
func (s String) ReadSample(_ context.Context, maxChars int) (string, error) {
	if s == "" {
		return "", ErrNoSample
	}
	return Truncate(string(s), maxChars), nil
}

// Truncate cuts text after maxChars characters; maxChars <= 0 returns text unchanged
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// bytesFor is the number of raw bytes worth reading for maxChars characters
func bytesFor(maxChars int) int64 {
	if maxChars <= 0 {
		return 0
	}
	return int64(maxChars) * utf8.UTFMax
}

// Bytes is a Provider over raw, possibly compressed, in-memory content
type Bytes struct {
	Content []byte
	// Encoding forces a source encoding; empty means detect
	Encoding charset.Encoding

	detected charset.Encoding
}

// NewBytes creates a provider over content
func NewBytes(content []byte) *Bytes {
	return &Bytes{Content: content}
}

// ReadSample decompresses and decodes a prefix of the content
func (b *Bytes) ReadSample(ctx context.Context, maxChars int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(b.Content) == 0 {
		return "", ErrNoSample
	}
	r, _, err := Decompress(bytes.NewReader(b.Content))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	raw, err := readPrefix(r, bytesFor(maxChars))
	if err != nil {
		return "", err
	}
	text, enc, err := decode(raw, b.Encoding)
	if err != nil {
		return "", err
	}
	b.detected = enc
	return Truncate(text, maxChars), nil
}

// DetectedEncoding returns the encoding used by the last ReadSample
func (b *Bytes) DetectedEncoding() charset.Encoding {
	return b.detected
}
