package records

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/sniffer"
)

func mustDialect(t *testing.T, b *dialect.Builder) dialect.Dialect {
	t.Helper()
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func TestSplitRecord(t *testing.T) {
	base := dialect.NewBuilder()

	tests := []struct {
		name   string
		record string
		d      dialect.Dialect
		want   []string
	}{
		{
			name:   "plain",
			record: "a,b,c",
			d:      mustDialect(t, dialect.From(dialect.Default())),
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "quoted delimiter and newline",
			record: "First CornerStone Bank,\"King of\nPrussia\",PA,35312",
			d:      mustDialect(t, base),
			want:   []string{"First CornerStone Bank", "King of\nPrussia", "PA", "35312"},
		},
		{
			name:   "doubled quote",
			record: `"say ""hi""",x`,
			d:      mustDialect(t, dialect.NewBuilder().DoubleQuote(true)),
			want:   []string{`say "hi"`, "x"},
		},
		{
			name:   "escaped quote",
			record: `"say \"hi\"",x`,
			d:      mustDialect(t, dialect.NewBuilder().DoubleQuote(false)),
			want:   []string{`say "hi"`, "x"},
		},
		{
			name:   "escaped delimiter outside quotes",
			record: `a\;b;c`,
			d:      mustDialect(t, dialect.NewBuilder().Delimiter(';')),
			want:   []string{"a;b", "c"},
		},
		{
			name:   "empty fields",
			record: ",,",
			d:      mustDialect(t, dialect.NewBuilder()),
			want:   []string{"", "", ""},
		},
		{
			name:   "skip initial space",
			record: `a, b,  "c"`,
			d:      mustDialect(t, dialect.NewBuilder().SkipInitialSpace(true)),
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "trim",
			record: " a |  b  ",
			d:      mustDialect(t, dialect.NewBuilder().Delimiter('|').Trim(true)),
			want:   []string{"a", "b"},
		},
		{
			name:   "multibyte delimiter and data",
			record: "čaj¦'šljiva¦žito'",
			d:      mustDialect(t, dialect.NewBuilder().Delimiter('¦').QuoteChar('\'')),
			want:   []string{"čaj", "šljiva¦žito"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRecord(tt.record, tt.d))
		})
	}
}

func TestReader(t *testing.T) {
	input := "# exported 2024-01-31\n" +
		"Bank Name,City,ST\n" +
		"First CornerStone Bank,\"King of\n" +
		"Prussia\",PA\n" +
		"\n" +
		"Farmers Bank,Ames,IA\n"

	d := mustDialect(t, dialect.NewBuilder().SkipBlankRows(true))
	r, err := NewReader(strings.NewReader(input), d)
	require.NoError(t, err)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bank Name", "City", "ST"}, header)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"First CornerStone Bank", "King of\nPrussia", "PA"},
		{"Farmers Bank", "Ames", "IA"},
	}, rows)
	assert.Equal(t, 5, r.Record())

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestReaderOptions(t *testing.T) {
	input := "title line\r\nid;name;qty\r\n1;a;5\r\n\r\n2;b;6\r\n"

	d := mustDialect(t, dialect.NewBuilder().
		Delimiter(';').
		LineTerminator("\r\n").
		SkipRows(1).
		SkipColumns(1).
		CommentPrefix(""))
	r, err := NewReader(strings.NewReader(input), d)
	require.NoError(t, err)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "qty"}, header)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "5"}, {}, {"b", "6"}}, rows)
}

func TestReaderWithoutHeader(t *testing.T) {
	d := mustDialect(t, dialect.NewBuilder().Header(false).Delimiter('\t'))
	r := NewLineReader(NewStringLines("1\t2\n3\t4\n", "\n"), d)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Nil(t, header)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, rows)
}

func TestReaderMultipleHeaderRows(t *testing.T) {
	d := mustDialect(t, dialect.NewBuilder().HeaderRowCount(2))
	r := NewLineReader(NewStringLines("a,b\nx,y\n1,2\n", "\n"), d)

	headers, err := r.HeaderRows()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"x", "y"}}, headers)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, rows)
}

func TestReaderDecodesEncoding(t *testing.T) {
	raw, err := charmap.Windows1250.NewEncoder().Bytes([]byte("naziv;cijena\nČokolada;1.99\n"))
	require.NoError(t, err)

	d := mustDialect(t, dialect.NewBuilder().Delimiter(';').Encoding("windows-1250"))
	r, err := NewReader(bytes.NewReader(raw), d)
	require.NoError(t, err)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Čokolada", "1.99"}}, rows)
}

func TestNewReaderRejectsInvalidDialect(t *testing.T) {
	d := dialect.Default()
	d.QuoteChar = d.Delimiter
	_, err := NewReader(strings.NewReader("a"), d)
	assert.ErrorIs(t, err, dialect.ErrInvalidDialect)
}

func TestReaderKeepsRowsOfSniffedDialect(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter rune
		header    []string
		want      [][]string
	}{
		{
			name:      "hash delimiter with empty first fields",
			input:     "a#b#c\n#x#y\n#z#w\n1#2#3\n",
			delimiter: '#',
			header:    []string{"a", "b", "c"},
			want:      [][]string{{"", "x", "y"}, {"", "z", "w"}, {"1", "2", "3"}},
		},
		{
			name:      "data rows starting with hash",
			input:     "id,name\n#1,foo\n#2,bar\n#3,baz\n",
			delimiter: ',',
			header:    []string{"id", "name"},
			want:      [][]string{{"#1", "foo"}, {"#2", "bar"}, {"#3", "baz"}},
		},
	}

	e := sniffer.NewEngine(sniffer.DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Infer(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.delimiter, d.Delimiter)
			assert.Empty(t, d.CommentPrefix)

			// force a single header row so both inputs are read the same way
			d, err = dialect.From(d).Header(true).Build()
			require.NoError(t, err)

			r, err := NewReader(strings.NewReader(tt.input), d)
			require.NoError(t, err)

			header, err := r.Header()
			require.NoError(t, err)
			assert.Equal(t, tt.header, header)

			rows, err := r.ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestReaderSkipsCommentLines(t *testing.T) {
	d := mustDialect(t, dialect.NewBuilder().Delimiter(';').CommentPrefix("//"))
	r, err := NewReader(strings.NewReader("// exported\na;b\n1;2\n"), d)
	require.NoError(t, err)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}
