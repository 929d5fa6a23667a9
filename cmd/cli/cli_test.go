package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/sniffer"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func zipOf(t *testing.T, entries map[string]string, order ...string) []byte {
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

func TestTargetsFor(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "plain.csv", []byte("a;b\n1;2\n"))
	archive := writeFile(t, dir, "bundle.zip", zipOf(t, map[string]string{
		"one.csv":    "a,b\n1,2\n",
		"notes.md":   "# readme",
		"two.tsv":    "a\tb\n1\t2\n",
		"__MACOSX/x": "junk",
	}, "one.csv", "notes.md", "two.tsv", "__MACOSX/x"))

	targets, err := targetsFor(plain, "")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, plain, targets[0].Name)

	targets, err = targetsFor(archive, "")
	require.NoError(t, err)
	names := make([]string, len(targets))
	for i, tg := range targets {
		names[i] = tg.Name
	}
	assert.Equal(t, []string{archive + ":one.csv", archive + ":two.tsv"}, names)

	_, err = targetsFor(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}

func TestSniffAll(t *testing.T) {
	dir := t.TempDir()
	semi := writeFile(t, dir, "semi.csv", []byte("name;price\nmilk;1.20\nbread;2.10\n"))
	empty := writeFile(t, dir, "empty.csv", nil)
	archive := writeFile(t, dir, "bundle.zip", zipOf(t, map[string]string{
		"pipe.csv": "id|qty\n1|2\n3|4\n",
	}, "pipe.csv"))

	var targets []sniffTarget
	for _, p := range []string{semi, empty, archive} {
		tg, err := targetsFor(p, "")
		require.NoError(t, err)
		targets = append(targets, tg...)
	}

	outcomes, err := sniffAll(context.Background(), sniffer.NewEngine(sniffer.DefaultConfig()), targets, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	require.NotNil(t, outcomes[0].Report)
	assert.Equal(t, ';', outcomes[0].Report.Dialect.Delimiter)
	assert.Nil(t, outcomes[1].Report)
	assert.NotEmpty(t, outcomes[1].Error)
	require.NotNil(t, outcomes[2].Report)
	assert.Equal(t, '|', outcomes[2].Report.Dialect.Delimiter)

	var buf bytes.Buffer
	writeSniffTable(&buf, outcomes)
	assert.Contains(t, buf.String(), "semi.csv")
	assert.Contains(t, buf.String(), "error:")
}

func TestSniffAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	tg, err := targetsFor(writeFile(t, dir, "a.csv", []byte("a,b\n1,2\n")), "")
	require.NoError(t, err)

	_, err = sniffAll(ctx, sniffer.NewEngine(sniffer.DefaultConfig()), tg, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadRecords(t *testing.T) {
	d := dialect.Unix()
	input := "id,note\n1,\"multi\nline\"\n2,plain\n3,last\n"

	result, err := readRecords(strings.NewReader(input), d, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "note"}, result.Header)
	assert.Equal(t, [][]string{{"1", "multi\nline"}, {"2", "plain"}}, result.Records)

	result, err = readRecords(strings.NewReader(input), d, 0)
	require.NoError(t, err)
	assert.Len(t, result.Records, 3)

	var buf bytes.Buffer
	writeRecordsTable(&buf, result)
	assert.True(t, strings.HasPrefix(buf.String(), "id"))
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, `\t`, printable('\t'))
	assert.Equal(t, "space", printable(' '))
	assert.Equal(t, "-", printable(0))
	assert.Equal(t, ";", printable(';'))
	assert.Equal(t, "no", headerLabel(false, 0))
	assert.Equal(t, "yes (2)", headerLabel(true, 2))
}
