package sample

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// Compression is the container format of a raw stream
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionSnappy
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionSnappy:
		return "snappy"
	default:
		return "none"
	}
}

// https://en.wikipedia.org/wiki/List_of_file_signatures
var signatures = []struct {
	c     Compression
	magic []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionBzip2, []byte{0x42, 0x5a, 0x68}},
	{CompressionSnappy, []byte("\xff\x06\x00\x00sNaPpY")},
}

// InferCompression detects compression from the leading bytes, not the filename
func InferCompression(head []byte) Compression {
	for _, s := range signatures {
		if bytes.HasPrefix(head, s.magic) {
			return s.c
		}
	}
	return CompressionNone
}

// Decompress peeks at r and wraps it in the matching decompressor
func Decompress(r io.Reader) (io.Reader, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(10)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, err
	}

	c := InferCompression(head)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("open gzip: %w", err)
		}
		return zr, c, nil
	case CompressionBzip2:
		return bzip2.NewReader(br), c, nil
	case CompressionSnappy:
		return snappy.NewReader(br), c, nil
	default:
		return br, c, nil
	}
}

var zipMagic = []byte("PK\x03\x04")

// IsZip reports whether head starts with a ZIP local file header
func IsZip(head []byte) bool {
	return bytes.HasPrefix(head, zipMagic)
}
