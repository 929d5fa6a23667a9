package sniffer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Ranking selects which candidate the distribution sniffer reports
type Ranking int

const (
	// RankLowest returns the candidate with the lowest average deviation
	RankLowest Ranking = iota
	// RankSecondLegacy returns the second-ranked candidate, reproducing the
	// behaviour of earlier releases. Kept only for comparison.
	RankSecondLegacy
)

// ParseRanking parses "lowest" or "second"; the empty string means lowest
func ParseRanking(s string) (Ranking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lowest":
		return RankLowest, nil
	case "second", "second_legacy", "legacy":
		return RankSecondLegacy, nil
	default:
		return RankLowest, fmt.Errorf("unknown ranking %q", s)
	}
}

func (r Ranking) String() string {
	if r == RankSecondLegacy {
		return "second"
	}
	return "lowest"
}

// DelimiterDistributionSniffer picks the candidate that slices lines into the most evenly sized fields
type DelimiterDistributionSniffer struct {
	masker  *Masker
	ranking Ranking
}

// NewDelimiterDistributionSniffer creates a distribution sniffer
func NewDelimiterDistributionSniffer(masker *Masker, ranking Ranking) *DelimiterDistributionSniffer {
	if masker == nil {
		masker = NewMasker()
	}
	return &DelimiterDistributionSniffer{masker: masker, ranking: ranking}
}

type deviation struct {
	candidate rune
	avg       float64
}

// Sniff returns the candidate with the lowest average per-line standard deviation
// of field lengths. Candidates that never occur in the sample are not eligible.
func (s *DelimiterDistributionSniffer) Sniff(sample string, candidates []rune, eol string) (rune, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	stripped := s.masker.Strip(sample)
	lines := make([]string, 0)
	for _, line := range splitLines(stripped, eol) {
		if line != "" {
			lines = append(lines, line)
		}
	}

	ranked := make([]deviation, 0, len(candidates))
	for _, c := range candidates {
		if !strings.ContainsRune(stripped, c) {
			continue
		}
		ranked = append(ranked, deviation{candidate: c, avg: averageDeviation(lines, c)})
	}
	if len(ranked) == 0 {
		return 0, ErrDelimiterIndeterminate
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].avg < ranked[j].avg
	})

	if s.ranking == RankSecondLegacy && len(ranked) > 1 {
		return ranked[1].candidate, nil
	}
	return ranked[0].candidate, nil
}

func averageDeviation(lines []string, delim rune) float64 {
	if len(lines) == 0 {
		return 0
	}
	total := 0.0
	for _, line := range lines {
		total += fieldLengthStdDev(strings.Split(line, string(delim)))
	}
	return total / float64(len(lines))
}

// fieldLengthStdDev is the population standard deviation of the field lengths in runes
func fieldLengthStdDev(fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	lengths := make([]float64, len(fields))
	sum := 0.0
	for i, f := range fields {
		lengths[i] = float64(utf8.RuneCountInString(f))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))

	variance := 0.0
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	return math.Sqrt(variance / float64(len(lengths)))
}
