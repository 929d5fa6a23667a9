package sniffer

import (
	"slices"
	"strings"
)

// DefaultCandidates returns the ordered list of delimiter candidates; order breaks ties
func DefaultCandidates() []rune {
	return []rune{',', '\t', ';', '|', ':', '-', '_', '#', '/', '\\', '$', '+', '=', '&', '@'}
}

// FrequencyProfile maps a line index to how often a candidate occurs on that line
type FrequencyProfile map[int]int

// DelimiterConsistencySniffer picks the candidate whose per-line count most often equals its own mode
type DelimiterConsistencySniffer struct {
	masker *Masker
}

// NewDelimiterConsistencySniffer creates a consistency sniffer
func NewDelimiterConsistencySniffer(masker *Masker) *DelimiterConsistencySniffer {
	if masker == nil {
		masker = NewMasker()
	}
	return &DelimiterConsistencySniffer{masker: masker}
}

// Sniff returns every candidate that ties for the highest number of lines
// matching its mode, in candidate order. Empty lines never match, and a
// candidate whose mode is zero is not considered at all.
func (s *DelimiterConsistencySniffer) Sniff(sample string, candidates []rune, eol string) ([]rune, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	lines := splitLines(s.masker.Strip(sample), eol)

	profiles := buildProfiles(lines, candidates)

	matches := make(map[rune]int, len(candidates))
	best := 0
	for _, c := range candidates {
		profile := profiles[c]
		m, ok := mode(profile, lines)
		if !ok || m == 0 {
			continue
		}
		for i, line := range lines {
			if line == "" {
				continue
			}
			if profile[i] == m {
				matches[c]++
			}
		}
		best = max(best, matches[c])
	}

	if best == 0 {
		return nil, ErrDelimiterIndeterminate
	}

	winners := make([]rune, 0, 1)
	for _, c := range candidates {
		if matches[c] == best && !slices.Contains(winners, c) {
			winners = append(winners, c)
		}
	}
	return winners, nil
}

func buildProfiles(lines []string, candidates []rune) map[rune]FrequencyProfile {
	profiles := make(map[rune]FrequencyProfile, len(candidates))
	for _, c := range candidates {
		profiles[c] = make(FrequencyProfile, len(lines))
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		for _, c := range candidates {
			profiles[c][i] = strings.Count(line, string(c))
		}
	}
	return profiles
}

// mode returns the most common per-line count over non-empty lines; on a tie the
// value seen first wins.
func mode(profile FrequencyProfile, lines []string) (int, bool) {
	counts := make(map[int]int)
	order := make([]int, 0)
	for i, line := range lines {
		if line == "" {
			continue
		}
		v := profile[i]
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}
