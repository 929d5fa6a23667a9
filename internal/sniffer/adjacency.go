package sniffer

import (
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"
)

// AdjacencyStatus tags the outcome of the quote/delimiter adjacency sniffer
type AdjacencyStatus int

const (
	// AdjacencyNeedsFallback means no adjacency pattern matched
	AdjacencyNeedsFallback AdjacencyStatus = iota
	// AdjacencyQuoteOnly means a quoted value filled a whole line, so only the quote is known
	AdjacencyQuoteOnly
	// AdjacencyMatched means both quote and delimiter were found
	AdjacencyMatched
)

func (s AdjacencyStatus) String() string {
	switch s {
	case AdjacencyMatched:
		return "matched"
	case AdjacencyQuoteOnly:
		return "quote_only"
	default:
		return "needs_fallback"
	}
}

// Adjacency is the result of QuoteDelimiterAdjacencySniffer.Sniff
type Adjacency struct {
	Status    AdjacencyStatus
	QuoteChar rune
	Delimiter rune
	// Pattern is the index of the pattern that matched, or -1
	Pattern int
}

// Err reports ErrQuoteAndDelimiterIndeterminate unless both characters were found
func (a Adjacency) Err() error {
	if a.Status == AdjacencyMatched {
		return nil
	}
	return sniffErr(SignalQuoteDelimiter, ErrQuoteAndDelimiterIndeterminate)
}

const (
	// a delimiter is anything but a line break, quote, word character, backslash or space
	adjacencyDelim = "(?<delim>[^\\r\\n\\w\"'`\\\\ ])"
	adjacencyQuote = "(?<quote>[\"'`])"
)

// QuoteDelimiterAdjacencySniffer infers quote and delimiter together from the characters
// that surround quoted values, e.g. `,"quoted",`.
type QuoteDelimiterAdjacencySniffer struct{}

// NewQuoteDelimiterAdjacencySniffer creates an adjacency sniffer
func NewQuoteDelimiterAdjacencySniffer() *QuoteDelimiterAdjacencySniffer {
	return &QuoteDelimiterAdjacencySniffer{}
}

// adjacencyPatterns builds the four patterns in the order they are tried
func adjacencyPatterns(eol string) []*regexp2.Regexp {
	if eol == "" {
		eol = DefaultLineTerminator
	}
	lineStart := `(?:^|` + regexp2.Escape(eol) + `)`
	lineEnd := `(?:$|` + regexp2.Escape(eol) + `)`
	opts := regexp2.RegexOptions(regexp2.Multiline | regexp2.Singleline)

	return []*regexp2.Regexp{
		// ,"something",
		regexp2.MustCompile(adjacencyDelim+` ?`+adjacencyQuote+`.*?\k<quote>\k<delim>`, opts),
		// "something", at the start of a line
		regexp2.MustCompile(lineStart+adjacencyQuote+`.*?\k<quote>`+adjacencyDelim+` ?`, opts),
		// ,"something" at the end of a line
		regexp2.MustCompile(adjacencyDelim+` ?`+adjacencyQuote+`.*?\k<quote>`+lineEnd, opts),
		// "something" alone on a line
		regexp2.MustCompile(lineStart+adjacencyQuote+`.*?\k<quote>`+lineEnd, opts),
	}
}

// Sniff tries each pattern in order and stops at the first one with a match.
// The most frequent captured quote and delimiter win; ties go to the one seen first.
func (s *QuoteDelimiterAdjacencySniffer) Sniff(sample, eol string) Adjacency {
	for i, re := range adjacencyPatterns(eol) {
		quotes, delims := newTally(), newTally()

		m, err := re.FindStringMatch(sample)
		for m != nil && err == nil {
			if g := m.GroupByName("quote"); g != nil && g.Length > 0 {
				quotes.add([]rune(g.String())[0])
			}
			if g := m.GroupByName("delim"); g != nil && g.Length > 0 {
				delims.add([]rune(g.String())[0])
			}
			m, err = re.FindNextMatch(m)
		}
		if err != nil {
			log.Debug().Err(err).Int("pattern", i).Msg("Adjacency pattern aborted")
			continue
		}

		quote, ok := quotes.top()
		if !ok {
			continue
		}
		if delim, ok := delims.top(); ok {
			return Adjacency{Status: AdjacencyMatched, QuoteChar: quote, Delimiter: delim, Pattern: i}
		}
		return Adjacency{Status: AdjacencyQuoteOnly, QuoteChar: quote, Pattern: i}
	}
	return Adjacency{Status: AdjacencyNeedsFallback, Pattern: -1}
}

// tally counts runes and remembers the order they were first seen in
type tally struct {
	counts map[rune]int
	order  []rune
}

func newTally() *tally {
	return &tally{counts: make(map[rune]int)}
}

func (t *tally) add(r rune) {
	if _, seen := t.counts[r]; !seen {
		t.order = append(t.order, r)
	}
	t.counts[r]++
}

func (t *tally) top() (rune, bool) {
	if len(t.order) == 0 {
		return 0, false
	}
	best := t.order[0]
	for _, r := range t.order[1:] {
		if t.counts[r] > t.counts[best] {
			best = r
		}
	}
	return best, true
}
