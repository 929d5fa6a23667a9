package sample

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/dialect-service/internal/charset"
)

// File reads a sample from a local file, transparently decompressing it and
// decoding it to UTF-8.
type File struct {
	Path string
	// Encoding forces a source encoding; empty means detect
	Encoding charset.Encoding

	detected charset.Encoding
}

// NewFile creates a file provider
func NewFile(path string) *File {
	return &File{Path: path}
}

// ReadSample reads enough bytes for maxChars characters and decodes them
func (f *File) ReadSample(ctx context.Context, maxChars int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	defer fh.Close()

	r, c, err := Decompress(fh)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	log.Debug().Str("path", f.Path).Str("compression", c.String()).Msg("Reading sample")

	raw, err := readPrefix(r, bytesFor(maxChars))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	text, enc, err := decode(raw, f.Encoding)
	if err != nil {
		return "", err
	}
	f.detected = enc
	return Truncate(text, maxChars), nil
}

// DetectedEncoding returns the encoding used by the last ReadSample
func (f *File) DetectedEncoding() charset.Encoding {
	return f.detected
}

func readPrefix(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoSample
	}
	if limit > 0 && int64(len(raw)) == limit {
		raw = charset.TrimIncomplete(raw)
	}
	return raw, nil
}

func decode(raw []byte, enc charset.Encoding) (string, charset.Encoding, error) {
	if enc == "" {
		text, detected, err := charset.DecodeDetected(raw)
		if err != nil {
			return "", detected, fmt.Errorf("decode sample: %w", err)
		}
		return text, detected, nil
	}
	text, err := charset.Decode(raw, enc)
	if err != nil {
		return "", enc, fmt.Errorf("decode sample: %w", err)
	}
	return text, enc, nil
}
