package sample

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/dialect-service/internal/charset"
)

// ZipOptions controls which archive entries are eligible for sampling
type ZipOptions struct {
	// MaxEntrySize is the largest declared uncompressed entry size accepted (0 = unlimited)
	MaxEntrySize int64
	// AllowedExtensions filters entries by extension (empty = all)
	AllowedExtensions []string
	// SkipPatterns contains patterns to skip (e.g., "__MACOSX")
	SkipPatterns []string
}

// DefaultZipOptions returns the default entry filter
func DefaultZipOptions() ZipOptions {
	return ZipOptions{
		MaxEntrySize:      1024 * 1024 * 1024,
		AllowedExtensions: []string{".csv", ".tsv", ".tab", ".psv", ".txt", ".dat", ".gz"},
		SkipPatterns: []string{
			"__MACOSX",
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
		},
	}
}

// Zip samples a delimited file stored inside a ZIP archive
type Zip struct {
	// Path of the archive on disk; ignored when Content is set
	Path    string
	Content []byte
	// Entry selects an entry by name; empty picks the first eligible one
	Entry    string
	Encoding charset.Encoding
	Options  ZipOptions

	detected charset.Encoding
}

// NewZip creates a provider over an archive on disk
func NewZip(path string) *Zip {
	return &Zip{Path: path, Options: DefaultZipOptions()}
}

// NewZipBytes creates a provider over an in-memory archive
func NewZipBytes(content []byte) *Zip {
	return &Zip{Content: content, Options: DefaultZipOptions()}
}

// Entries lists the eligible entries of the archive in archive order
func (z *Zip) Entries() ([]string, error) {
	r, closer, err := z.open()
	if err != nil {
		return nil, err
	}
	defer closer()

	var names []string
	for _, f := range r.File {
		if name, ok := z.eligible(f); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// ReadSample reads the selected entry
func (z *Zip) ReadSample(ctx context.Context, maxChars int) (string, error) {
	r, closer, err := z.open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	defer closer()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name, ok := z.eligible(f)
		if !ok || (z.Entry != "" && name != z.Entry) {
			continue
		}
		return z.readEntry(f, name, maxChars)
	}
	if z.Entry != "" {
		return "", fmt.Errorf("%w: entry %q not found", ErrNoSample, z.Entry)
	}
	return "", fmt.Errorf("%w: archive has no delimited entries", ErrNoSample)
}

func (z *Zip) readEntry(f *zip.File, name string, maxChars int) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s in ZIP: %v", ErrNoSample, name, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Str("entry", name).Err(closeErr).Msg("Failed to close ZIP entry")
		}
	}()

	dr, c, err := Decompress(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	log.Debug().Str("entry", name).Str("compression", c.String()).Msg("Reading sample from ZIP entry")

	raw, err := readPrefix(dr, bytesFor(maxChars))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrNoSample, name, err)
	}
	text, enc, err := decode(raw, z.Encoding)
	if err != nil {
		return "", err
	}
	z.detected = enc
	return Truncate(text, maxChars), nil
}

// DetectedEncoding returns the encoding used by the last ReadSample
func (z *Zip) DetectedEncoding() charset.Encoding {
	return z.detected
}

func (z *Zip) open() (*zip.Reader, func(), error) {
	if z.Content != nil {
		r, err := zip.NewReader(bytes.NewReader(z.Content), int64(len(z.Content)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open ZIP: %w", err)
		}
		return r, func() {}, nil
	}
	rc, err := zip.OpenReader(z.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ZIP: %w", err)
	}
	return &rc.Reader, func() { _ = rc.Close() }, nil
}

// eligible applies the directory, path safety, skip, extension and size filters
func (z *Zip) eligible(f *zip.File) (string, bool) {
	if f.FileInfo().IsDir() {
		return "", false
	}
	name, err := sanitizeFilename(f.Name)
	if err != nil {
		log.Debug().Str("entry", f.Name).Err(err).Msg("Skipping ZIP entry")
		return "", false
	}
	for _, pattern := range z.Options.SkipPatterns {
		if strings.Contains(f.Name, pattern) {
			return "", false
		}
	}
	if !z.isAllowedExtension(name) {
		return "", false
	}
	if z.Options.MaxEntrySize > 0 && int64(f.UncompressedSize64) > z.Options.MaxEntrySize {
		return "", false
	}
	return name, true
}

func (z *Zip) isAllowedExtension(filename string) bool {
	if len(z.Options.AllowedExtensions) == 0 {
		return true
	}
	ext := filepath.Ext(filename)
	for _, allowed := range z.Options.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// sanitizeFilename rejects absolute and escaping paths and flattens the rest to a base name
func sanitizeFilename(filename string) (string, error) {
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}
	if len(filename) >= 2 && filename[1] == ':' {
		return "", fmt.Errorf("windows drive letter not allowed: %s", filename)
	}

	cleaned := path.Clean(strings.ReplaceAll(filename, "\\", "/"))
	if strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", filename)
		}
	}

	base := path.Base(cleaned)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	return base, nil
}

