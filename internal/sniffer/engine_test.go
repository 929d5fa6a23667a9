package sniffer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/sample"
)

func TestEngineInferPlainSample(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got, err := e.Infer("foo,bar,baz\nbin,boz,bork\nlib,bil,ilb\n")
	require.NoError(t, err)

	want, err := dialect.NewBuilder().
		Delimiter(',').
		QuoteChar('"').
		LineTerminator("\n").
		QuoteStyle(dialect.QuoteNone).
		Header(false).
		CommentPrefix("").
		Build()
	require.NoError(t, err)

	assert.True(t, want.Equal(got), "got %+v", got)
	assert.Equal(t, ',', got.Delimiter)
	assert.Equal(t, "\n", got.LineTerminator)
	assert.False(t, got.HasHeader)
	assert.Equal(t, dialect.DefaultEscapeChar, got.EscapeChar)
	assert.Empty(t, got.CommentPrefix)
}

func TestEngineInferReport(t *testing.T) {
	tests := []struct {
		name      string
		sample    string
		delimiter rune
		quote     rune
		eol       string
		style     dialect.QuoteStyle
		source    DelimiterSource
		adjacency AdjacencyStatus
	}{
		{
			name:      "quoted fields",
			sample:    "\"name\",\"city\",\"zip\"\n\"Ann\",\"Berlin\",\"10115\"\n\"Bob\",\"Hamburg\",\"20095\"\n",
			delimiter: ',',
			quote:     '"',
			eol:       "\n",
			style:     dialect.QuoteAll,
			source:    SourceAdjacency,
			adjacency: AdjacencyMatched,
		},
		{
			name:      "semicolons with crlf",
			sample:    "a;b\r\n1;2\r\n3;4\r\n",
			delimiter: ';',
			quote:     '"',
			eol:       "\r\n",
			style:     dialect.QuoteNone,
			source:    SourceConsistency,
			adjacency: AdjacencyNeedsFallback,
		},
		{
			name:      "tabs",
			sample:    "id\tqty\tprice\n1\t5\t9.99\n2\t3\t1.50\n",
			delimiter: '\t',
			quote:     '"',
			eol:       "\n",
			style:     dialect.QuoteNone,
			source:    SourceConsistency,
			adjacency: AdjacencyNeedsFallback,
		},
		{
			name:      "consistency tie broken by distribution",
			sample:    "ab,cd;efghij\nkl,mn;opqrst\n",
			delimiter: ';',
			quote:     '"',
			eol:       "\n",
			style:     dialect.QuoteNone,
			source:    SourceDistribution,
			adjacency: AdjacencyNeedsFallback,
		},
		{
			name:      "single quoted column",
			sample:    "'alpha'\n'beta'\n'gamma'\n",
			delimiter: ',',
			quote:     '\'',
			eol:       "\n",
			style:     dialect.QuoteAll,
			source:    SourceDefault,
			adjacency: AdjacencyQuoteOnly,
		},
	}

	e := NewEngine(Config{DefaultDelimiter: ','})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := e.InferReport(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.delimiter, r.Dialect.Delimiter)
			assert.Equal(t, tt.quote, r.Dialect.QuoteChar)
			assert.Equal(t, tt.eol, r.Dialect.LineTerminator)
			assert.Equal(t, tt.style, r.Dialect.QuoteStyle)
			assert.Equal(t, tt.source, r.DelimiterSource)
			assert.Equal(t, tt.adjacency.String(), r.Adjacency)
		})
	}
}

func TestEngineTieIsReported(t *testing.T) {
	r, err := NewEngine(DefaultConfig()).InferReport("ab,cd;efghij\nkl,mn;opqrst\n")
	require.NoError(t, err)
	assert.Equal(t, []string{",", ";"}, r.Tied)

	legacy := DefaultConfig()
	legacy.Ranking = RankSecondLegacy
	r, err = NewEngine(legacy).InferReport("ab,cd;efghij\nkl,mn;opqrst\n")
	require.NoError(t, err)
	assert.Equal(t, ',', r.Dialect.Delimiter)
}

func TestEngineHeaderDetection(t *testing.T) {
	sample := "Bank Name,City,ST,CERT\n" +
		"First Bank of Ohio,Springfield Heights,OH,12345\n" +
		"Second National,Lakeview Terrace,IL,23456\n" +
		"Farmers Trust Co,Mountain Home,AR,34567\n"

	d, err := NewEngine(DefaultConfig()).Infer(sample)
	require.NoError(t, err)
	assert.True(t, d.HasHeader)
	assert.Equal(t, 1, d.HeaderRowCount)
	assert.Equal(t, ',', d.Delimiter)
}

func TestEngineIdempotent(t *testing.T) {
	samples := []string{
		"foo,bar,baz\nbin,boz,bork\nlib,bil,ilb\n",
		"\"a\";\"b\"\r\n\"c\";\"d\"\r\n",
		"x|y|z\n1|2|3\n",
	}

	e := NewEngine(DefaultConfig())
	for _, s := range samples {
		first, err := e.Infer(s)
		require.NoError(t, err)
		second, err := e.Infer(s)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.True(t, first.Equal(second))
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewEngine(DefaultConfig())
	sample := "\"id\",\"name\"\n1,\"Ann\"\n2,\"Bob\"\n"
	want, err := e.Infer(sample)
	require.NoError(t, err)

	results := make([]dialect.Dialect, 16)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			d, err := e.Infer(sample)
			results[i] = d
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, d := range results {
		assert.True(t, want.Equal(d))
	}
}

func TestEngineErrors(t *testing.T) {
	e := NewEngine(DefaultConfig())

	t.Run("empty sample", func(t *testing.T) {
		for _, s := range []string{"", "  \n\n"} {
			_, err := e.Infer(s)
			require.ErrorIs(t, err, ErrSampleEmpty)

			var se *SniffError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, SignalSample, se.Signal)
		}
	})

	t.Run("no delimiter", func(t *testing.T) {
		_, err := e.Infer("hello\nworld\n")
		require.ErrorIs(t, err, ErrDelimiterIndeterminate)

		var se *SniffError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, SignalDelimiter, se.Signal)
	})

	t.Run("configured default delimiter", func(t *testing.T) {
		r, err := NewEngine(Config{DefaultDelimiter: ';'}).InferReport("hello\nworld\n")
		require.NoError(t, err)
		assert.Equal(t, ';', r.Dialect.Delimiter)
		assert.Equal(t, SourceDefault, r.DelimiterSource)
	})

	t.Run("empty bytes", func(t *testing.T) {
		_, err := e.InferBytes(nil)
		assert.ErrorIs(t, err, ErrSampleEmpty)
	})
}

func TestEngineSampleSize(t *testing.T) {
	r, err := NewEngine(Config{SampleSize: 12}).InferReport("a,b\n1,2\n3,4\n5,6\n")
	require.NoError(t, err)
	assert.Equal(t, 12, r.SampleSize)
	assert.Equal(t, ',', r.Dialect.Delimiter)

	r, err = NewEngine(Config{SampleSize: -1}).InferReport("a,b\n1,2\n3,4\n5,6\n")
	require.NoError(t, err)
	assert.Equal(t, 16, r.SampleSize)
}

func TestEngineInferBytes(t *testing.T) {
	r, err := NewEngine(DefaultConfig()).InferBytes([]byte("šifra;naziv\n1;čaj\n2;žito\n"))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", r.Dialect.Encoding)
	assert.Equal(t, ';', r.Dialect.Delimiter)
}

func TestEngineCandidatesExcludeQuoteAndEscape(t *testing.T) {
	e := NewEngine(Config{Candidates: []rune{'"', '\\', '|'}})
	assert.Equal(t, []rune{'|'}, e.candidatesFor('"'))
	assert.Equal(t, []rune{'"', '\\', '|'}, e.Config().Candidates)
}

func TestEngineInferSample(t *testing.T) {
	e := NewEngine(DefaultConfig())

	legacy := []byte("naziv;cijena\n\xe8okolada;1,99\nkava;4,50\n")
	report, err := e.InferSample(context.Background(), &sample.Bytes{Content: legacy, Encoding: "windows-1250"})
	require.NoError(t, err)
	assert.Equal(t, ';', report.Dialect.Delimiter)
	assert.Equal(t, 37, report.SampleSize)
	assert.Equal(t, "windows-1250", report.Dialect.Encoding)

	report, err = e.InferSample(context.Background(), sample.String("a|b\nc|d\n"))
	require.NoError(t, err)
	assert.Equal(t, '|', report.Dialect.Delimiter)
	assert.Equal(t, "utf-8", report.Dialect.Encoding)

	_, err = e.InferSample(context.Background(), sample.String(""))
	var sniffErr *SniffError
	require.ErrorAs(t, err, &sniffErr)
	assert.Equal(t, SignalSample, sniffErr.Signal)
	assert.ErrorIs(t, err, ErrSampleEmpty)
}
