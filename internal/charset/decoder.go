// Package charset detects the text encoding of raw samples and decodes them to UTF-8.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedEncoding is returned when an encoding name maps to no known decoder
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Encoding represents a text encoding by its lower-case label
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF16LE     Encoding = "utf-16le"
	EncodingUTF16BE     Encoding = "utf-16be"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
	EncodingISO88592    Encoding = "iso-8859-2"
)

// detectLimit bounds how much of a buffer is handed to the statistical detector
const detectLimit = 64 * 1024

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect guesses the encoding of data.
// A byte order mark wins, then valid UTF-8, then chardet's best guess.
func Detect(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	}

	sample := data
	if len(sample) > detectLimit {
		sample = TrimIncomplete(sample[:detectLimit])
	}
	if utf8.Valid(sample) {
		return EncodingUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Charset == "" {
		log.Debug().Err(err).Msg("Charset detection inconclusive, assuming windows-1250")
		return EncodingWindows1250
	}
	enc := Normalize(result.Charset)
	log.Debug().Str("charset", string(enc)).Int("confidence", result.Confidence).Msg("Detected charset")
	return enc
}

// Normalize lower-cases an encoding label and folds common aliases
func Normalize(name string) Encoding {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf8", "utf-8":
		return EncodingUTF8
	case "cp1250":
		return EncodingWindows1250
	case "cp1252":
		return EncodingWindows1252
	case "latin1", "latin-1":
		return EncodingISO88591
	case "latin2", "latin-2":
		return EncodingISO88592
	case "gb-18030":
		return Encoding("gb18030")
	}
	return Encoding(n)
}

// lookup resolves an encoding label; a nil encoding means the text is already UTF-8
func lookup(enc Encoding) (encoding.Encoding, error) {
	switch Normalize(string(enc)) {
	case EncodingUTF8:
		return nil, nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	case EncodingWindows1250:
		return charmap.Windows1250, nil
	case EncodingISO88592:
		return charmap.ISO8859_2, nil
	}

	if e, err := htmlindex.Get(string(enc)); err == nil {
		return e, nil
	}
	if e, err := ianaindex.IANA.Encoding(string(enc)); err == nil && e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
}

// Decode converts data from enc to a UTF-8 string.
// Data that is already valid UTF-8 is returned as is whatever enc says, and
// invalid data labelled UTF-8 is decoded as windows-1250.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, bomUTF8)
	e, err := lookup(enc)
	if err != nil {
		return "", err
	}
	if !isUTF16(enc) && utf8.Valid(data) {
		return string(data), nil
	}
	if e == nil {
		// mislabelled single-byte data
		e = charmap.Windows1250
	}

	out, _, err := transform.Bytes(e.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), nil
}

// DecodeDetected detects the encoding of data and decodes it
func DecodeDetected(data []byte) (string, Encoding, error) {
	enc := Detect(data)
	text, err := Decode(data, enc)
	if err != nil {
		return "", enc, err
	}
	return text, enc, nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	e, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return r, nil
	}
	return transform.NewReader(r, e.NewDecoder()), nil
}

func isUTF16(enc Encoding) bool {
	n := Normalize(string(enc))
	return n == EncodingUTF16LE || n == EncodingUTF16BE
}

// TrimIncomplete drops a partial UTF-8 sequence cut off at the end of b
func TrimIncomplete(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
