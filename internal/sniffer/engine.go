package sniffer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/sample"
)

// DefaultSampleSize is the number of characters the engine looks at
const DefaultSampleSize = 2500

// DelimiterSource names the sniffer that resolved the delimiter
type DelimiterSource string

const (
	SourceAdjacency    DelimiterSource = "adjacency"
	SourceConsistency  DelimiterSource = "consistency"
	SourceDistribution DelimiterSource = "distribution"
	SourceDefault      DelimiterSource = "default"
)

// Config holds engine configuration
type Config struct {
	// Candidates are the delimiter candidates in tie-break order
	Candidates []rune `json:"candidates"`
	// QuoteChars are the characters the masker pairs up when counting
	QuoteChars []rune `json:"quoteChars"`
	// SampleSize caps the number of characters inspected; negative means no cap
	SampleSize int `json:"sampleSize"`
	// Ranking selects the distribution sniffer's pick
	Ranking Ranking `json:"ranking"`
	// FallbackQuote is used when no quote/delimiter adjacency is found
	FallbackQuote rune `json:"fallbackQuote"`
	// DefaultDelimiter is used when no delimiter can be sniffed; 0 makes that an error
	DefaultDelimiter rune `json:"defaultDelimiter"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Candidates:    DefaultCandidates(),
		QuoteChars:    slices.Clone(DefaultQuoteChars),
		SampleSize:    DefaultSampleSize,
		Ranking:       RankLowest,
		FallbackQuote: '"',
	}
}

// Report is a dialect together with how it was reached
type Report struct {
	Dialect         dialect.Dialect `json:"dialect"`
	DelimiterSource DelimiterSource `json:"delimiterSource"`
	Adjacency       string          `json:"adjacency"`
	// Tied lists the consistency winners when more than one candidate tied
	Tied       []string `json:"tied,omitempty"`
	SampleSize int      `json:"sampleSize"`
}

// Engine runs the individual sniffers and assembles a Dialect.
// It holds only read-only configuration and is safe for concurrent use.
type Engine struct {
	config      Config
	masker      *Masker
	lineTerm    *LineTerminatorSniffer
	adjacency   *QuoteDelimiterAdjacencySniffer
	consistency *DelimiterConsistencySniffer
	quoteStyle  *QuoteStyleSniffer
	header      *HeaderSniffer
}

// NewEngine creates an engine; zero config fields take their defaults
func NewEngine(config Config) *Engine {
	def := DefaultConfig()
	if len(config.Candidates) == 0 {
		config.Candidates = def.Candidates
	}
	if len(config.QuoteChars) == 0 {
		config.QuoteChars = def.QuoteChars
	}
	if config.SampleSize == 0 {
		config.SampleSize = def.SampleSize
	}
	if config.FallbackQuote == 0 {
		config.FallbackQuote = def.FallbackQuote
	}
	config.Candidates = slices.Clone(config.Candidates)
	config.QuoteChars = slices.Clone(config.QuoteChars)

	masker := NewMasker(config.QuoteChars...)
	return &Engine{
		config:      config,
		masker:      masker,
		lineTerm:    NewLineTerminatorSniffer(masker),
		adjacency:   NewQuoteDelimiterAdjacencySniffer(),
		consistency: NewDelimiterConsistencySniffer(masker),
		quoteStyle:  NewQuoteStyleSniffer(),
		header:      NewHeaderSniffer(),
	}
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	c := e.config
	c.Candidates = slices.Clone(c.Candidates)
	c.QuoteChars = slices.Clone(c.QuoteChars)
	return c
}

// Infer sniffs the dialect of sample
func (e *Engine) Infer(sample string) (dialect.Dialect, error) {
	r, err := e.InferReport(sample)
	if err != nil {
		return dialect.Dialect{}, err
	}
	return r.Dialect, nil
}

// InferBytes detects the encoding of raw, decodes it and sniffs the result.
// The detected encoding is recorded on the dialect.
func (e *Engine) InferBytes(raw []byte) (Report, error) {
	if len(raw) == 0 {
		inferenceTotal.WithLabelValues("empty_sample").Inc()
		return Report{}, sniffErr(SignalSample, ErrSampleEmpty)
	}
	text, enc, err := charset.DecodeDetected(raw)
	if err != nil {
		inferenceTotal.WithLabelValues("decode_failed").Inc()
		return Report{}, fmt.Errorf("decode sample: %w", err)
	}
	return e.InferDecoded(text, string(enc))
}

// InferReport sniffs the dialect of sample and reports which paths were taken
func (e *Engine) InferReport(sample string) (Report, error) {
	return e.InferDecoded(sample, "")
}

// InferSample reads a sample of SampleSize characters from p and sniffs it.
// Providers that decode raw bytes contribute the source encoding.
func (e *Engine) InferSample(ctx context.Context, p sample.Provider) (Report, error) {
	text, err := p.ReadSample(ctx, e.config.SampleSize)
	if err != nil {
		if errors.Is(err, sample.ErrNoSample) {
			inferenceTotal.WithLabelValues("empty_sample").Inc()
			return Report{}, &SniffError{Signal: SignalSample, Err: fmt.Errorf("%w: %v", ErrSampleEmpty, err)}
		}
		return Report{}, fmt.Errorf("read sample: %w", err)
	}
	return e.InferDecoded(text, sample.EncodingOf(p))
}

// InferDecoded sniffs already decoded text; encoding names the source
// encoding recorded on the dialect and may be empty.
func (e *Engine) InferDecoded(text, encoding string) (Report, error) {
	start := time.Now()
	defer func() {
		inferenceDuration.Observe(time.Since(start).Seconds())
	}()

	text = e.truncate(text)
	if strings.TrimSpace(text) == "" {
		inferenceTotal.WithLabelValues("empty_sample").Inc()
		return Report{}, sniffErr(SignalSample, ErrSampleEmpty)
	}
	sampleRunes.Observe(float64(utf8.RuneCountInString(text)))

	eol := e.lineTerm.Sniff(text)
	report := Report{SampleSize: utf8.RuneCountInString(text)}

	adj := e.adjacency.Sniff(text, eol)
	report.Adjacency = adj.Status.String()

	var quote, delim rune
	switch adj.Status {
	case AdjacencyMatched:
		quote, delim = adj.QuoteChar, adj.Delimiter
		report.DelimiterSource = SourceAdjacency
	case AdjacencyQuoteOnly:
		quote = adj.QuoteChar
	default:
		quote = e.config.FallbackQuote
		log.Debug().Err(adj.Err()).Str("quote", string(quote)).Msg("Falling back to fixed quote character")
	}

	if delim == 0 {
		var err error
		delim, report.DelimiterSource, report.Tied, err = e.resolveDelimiter(text, quote, eol)
		if err != nil {
			inferenceTotal.WithLabelValues("delimiter_indeterminate").Inc()
			return Report{}, err
		}
	}
	delimiterSource.WithLabelValues(string(report.DelimiterSource)).Inc()

	style := e.quoteStyle.Sniff(text, quote, delim, eol)
	quoteStyles.WithLabelValues(style.String()).Inc()
	hasHeader := e.header.Sniff(text, quote, delim, eol)

	b := dialect.NewBuilder().
		Delimiter(delim).
		QuoteChar(quote).
		EscapeChar(dialect.DefaultEscapeChar).
		LineTerminator(eol).
		QuoteStyle(style).
		Header(hasHeader).
		CommentPrefix("")
	if encoding != "" {
		b.Encoding(encoding)
	}
	d, err := b.Build()
	if err != nil {
		inferenceTotal.WithLabelValues("invalid").Inc()
		return Report{}, fmt.Errorf("assemble dialect: %w", err)
	}
	report.Dialect = d

	inferenceTotal.WithLabelValues("ok").Inc()
	log.Debug().
		Str("delimiter", string(delim)).
		Str("quote", string(quote)).
		Str("source", string(report.DelimiterSource)).
		Str("quoteStyle", style.String()).
		Bool("hasHeader", hasHeader).
		Msg("Inferred dialect")
	return report, nil
}

// resolveDelimiter runs the frequency sniffers over the candidates that can
// act as a delimiter next to quote.
func (e *Engine) resolveDelimiter(sample string, quote rune, eol string) (rune, DelimiterSource, []string, error) {
	candidates := e.candidatesFor(quote)

	winners, err := e.consistency.Sniff(sample, candidates, eol)
	switch {
	case err == nil && len(winners) == 1:
		return winners[0], SourceConsistency, nil, nil
	case err == nil:
		tied := make([]string, len(winners))
		for i, w := range winners {
			tied[i] = string(w)
		}
		d, derr := e.distribution(quote).Sniff(sample, winners, eol)
		if derr != nil {
			// every winner occurs in the sample, so this only happens on a masking abort
			return winners[0], SourceConsistency, tied, nil
		}
		log.Debug().Strs("tied", tied).Str("picked", string(d)).Msg("Consistency tie broken by distribution")
		return d, SourceDistribution, tied, nil
	case !errors.Is(err, ErrDelimiterIndeterminate):
		return 0, "", nil, sniffErr(SignalDelimiter, err)
	}

	if d, derr := e.distribution(quote).Sniff(sample, candidates, eol); derr == nil {
		return d, SourceDistribution, nil, nil
	}
	if e.config.DefaultDelimiter != 0 && e.config.DefaultDelimiter != quote {
		log.Debug().Str("delimiter", string(e.config.DefaultDelimiter)).Msg("Using configured default delimiter")
		return e.config.DefaultDelimiter, SourceDefault, nil, nil
	}
	return 0, "", nil, sniffErr(SignalDelimiter, ErrDelimiterIndeterminate)
}

// distribution builds a distribution sniffer whose masker knows the resolved quote
func (e *Engine) distribution(quote rune) *DelimiterDistributionSniffer {
	quotes := e.config.QuoteChars
	if !slices.Contains(quotes, quote) {
		quotes = append(slices.Clone(quotes), quote)
	}
	return NewDelimiterDistributionSniffer(NewMasker(quotes...), e.config.Ranking)
}

// candidatesFor drops candidates that would collide with the quote or escape character
func (e *Engine) candidatesFor(quote rune) []rune {
	out := make([]rune, 0, len(e.config.Candidates))
	for _, c := range e.config.Candidates {
		if c == quote || c == dialect.DefaultEscapeChar {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (e *Engine) truncate(sample string) string {
	if e.config.SampleSize <= 0 || len(sample) <= e.config.SampleSize {
		return sample
	}
	n := 0
	for i := range sample {
		if n == e.config.SampleSize {
			return sample[:i]
		}
		n++
	}
	return sample
}
