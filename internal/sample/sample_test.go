package sample

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	khttp "github.com/kosarica/dialect-service/internal/http"
	"github.com/kosarica/dialect-service/internal/http/ratelimit"
)

const csvText = "naziv;cijena\nčokolada;1,99\nkava;4,50\n"

func TestStringProvider(t *testing.T) {
	got, err := String("abcdef").ReadSample(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = String("").ReadSample(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNoSample)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "čok", Truncate("čokolada", 3))
	assert.Equal(t, "ab", Truncate("ab", 5))
	assert.Equal(t, "ab", Truncate("ab", 0))
}

func TestInferCompression(t *testing.T) {
	assert.Equal(t, CompressionGzip, InferCompression([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, CompressionBzip2, InferCompression([]byte("BZh91AY")))
	assert.Equal(t, CompressionSnappy, InferCompression([]byte("\xff\x06\x00\x00sNaPpY\x00")))
	assert.Equal(t, CompressionNone, InferCompression([]byte("a,b")))
	assert.Equal(t, CompressionNone, InferCompression(nil))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestFileProvider(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(csvText))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var sn bytes.Buffer
	sw := snappy.NewBufferedWriter(&sn)
	_, err = sw.Write([]byte(csvText))
	require.NoError(t, err)
	require.NoError(t, sw.Close())

	tests := []struct {
		name string
		data []byte
	}{
		{"plain.csv", []byte(csvText)},
		{"packed.csv.gz", gz.Bytes()},
		{"packed.csv.sz", sn.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFile(writeFile(t, tt.name, tt.data))
			got, err := f.ReadSample(context.Background(), 0)
			require.NoError(t, err)
			assert.Equal(t, csvText, got)
			assert.Equal(t, "utf-8", string(f.DetectedEncoding()))
		})
	}
}

func TestFileProviderForcedEncoding(t *testing.T) {
	raw, err := charmap.Windows1250.NewEncoder().Bytes([]byte(csvText))
	require.NoError(t, err)

	f := NewFile(writeFile(t, "legacy.csv", raw))
	f.Encoding = "windows-1250"
	got, err := f.ReadSample(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "naziv;cijena", got)
}

func TestFileProviderTruncatesOnRuneBoundary(t *testing.T) {
	f := NewFile(writeFile(t, "wide.csv", []byte("žžžžžžžžžž,a\n")))
	got, err := f.ReadSample(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "žžžž", got)
}

func TestFileProviderErrors(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.csv")).ReadSample(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoSample)

	_, err = NewFile(writeFile(t, "empty.csv", nil)).ReadSample(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoSample)
}

func buildZip(t *testing.T, entries map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipProvider(t *testing.T) {
	entries := map[string]string{
		"__MACOSX/._prices.csv": "junk",
		"readme.md":             "# hello",
		"data/prices.csv":       csvText,
		"data/stores.tsv":       "id\tname\n1\tA\n",
	}
	order := []string{"__MACOSX/._prices.csv", "readme.md", "data/prices.csv", "data/stores.tsv"}
	content := buildZip(t, entries, order)

	z := NewZipBytes(content)
	names, err := z.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"prices.csv", "stores.tsv"}, names)

	got, err := z.ReadSample(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, csvText, got)

	z.Entry = "stores.tsv"
	got, err = z.ReadSample(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "id\tname\n1\tA\n", got)

	z.Entry = "nope.csv"
	_, err = z.ReadSample(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSample)

	onDisk := NewZip(writeFile(t, "bundle.zip", content))
	got, err = onDisk.ReadSample(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "naziv", got)
}

func TestZipProviderNoEntries(t *testing.T) {
	content := buildZip(t, map[string]string{"a.md": "x"}, []string{"a.md"})
	_, err := NewZipBytes(content).ReadSample(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSample)

	_, err = NewZipBytes([]byte("not a zip")).ReadSample(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSample)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.csv", "a.csv", false},
		{"dir/sub/a.csv", "a.csv", false},
		{`dir\a.csv`, "a.csv", false},
		{"/etc/passwd", "", true},
		{"../a.csv", "", true},
		{"C:/a.csv", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeFilename(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(csvText))
	}))
	defer srv.Close()

	client := khttp.NewClient(ratelimit.Config{MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1})

	got, err := NewHTTP(client, srv.URL+"/prices.csv").ReadSample(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "naziv;cijena", got)

	_, err = NewHTTP(client, srv.URL+"/missing.csv").ReadSample(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNoSample)
}

func TestBytesProvider(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(csvText))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	b := NewBytes(gz.Bytes())
	got, err := b.ReadSample(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, csvText, got)
	assert.Equal(t, "utf-8", EncodingOf(b))

	legacy, err := charmap.Windows1250.NewEncoder().Bytes([]byte(csvText))
	require.NoError(t, err)
	b = &Bytes{Content: legacy, Encoding: "windows-1250"}
	got, err = b.ReadSample(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, csvText, got)
	assert.Equal(t, "windows-1250", EncodingOf(b))

	_, err = NewBytes(nil).ReadSample(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoSample)
}

func TestEncodingOf(t *testing.T) {
	assert.Equal(t, "", EncodingOf(String("a,b")))

	z := NewZipBytes(buildZip(t, map[string]string{"a.csv": csvText}, []string{"a.csv"}))
	_, err := z.ReadSample(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "utf-8", EncodingOf(z))
}

func TestIsZip(t *testing.T) {
	assert.True(t, IsZip(buildZip(t, map[string]string{"a.csv": "a"}, []string{"a.csv"})))
	assert.False(t, IsZip([]byte(csvText)))
	assert.False(t, IsZip(nil))
}
