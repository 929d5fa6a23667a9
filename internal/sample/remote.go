package sample

import (
	"context"
	"fmt"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/http"
)

// HTTP reads a sample from a URL with the rate-limited client
type HTTP struct {
	Client   *http.Client
	URL      string
	Encoding charset.Encoding

	detected charset.Encoding
}

// NewHTTP creates a URL provider
func NewHTTP(client *http.Client, url string) *HTTP {
	if client == nil {
		client = http.NewClientDefault()
	}
	return &HTTP{Client: client, URL: url}
}

// ReadSample fetches a prefix of the document and decodes it
func (h *HTTP) ReadSample(ctx context.Context, maxChars int) (string, error) {
	raw, err := h.Client.GetPrefix(ctx, h.URL, bytesFor(maxChars))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	if len(raw) == 0 {
		return "", ErrNoSample
	}
	if limit := bytesFor(maxChars); limit > 0 && int64(len(raw)) == limit {
		raw = charset.TrimIncomplete(raw)
	}
	text, enc, err := decode(raw, h.Encoding)
	if err != nil {
		return "", err
	}
	h.detected = enc
	return Truncate(text, maxChars), nil
}

// DetectedEncoding returns the encoding used by the last ReadSample
func (h *HTTP) DetectedEncoding() charset.Encoding {
	return h.detected
}
