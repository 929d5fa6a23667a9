package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelimiterConsistencySniffer(t *testing.T) {
	tests := []struct {
		name       string
		sample     string
		candidates []rune
		want       []rune
	}{
		{
			name:   "single consistent comma",
			sample: "a,b,c\n1,2,3\nx,y,z\n",
			want:   []rune{','},
		},
		{
			name:   "tie kept in candidate order",
			sample: "a;b,c\nd;e,f\n",
			want:   []rune{',', ';'},
		},
		{
			name:       "quoted delimiters ignored",
			sample:     "\"a,b\";c\n\"d,e\";f\n",
			candidates: []rune{',', ';'},
			want:       []rune{';'},
		},
		{
			name:   "mode over irregular lines",
			sample: "a|b|c\nd|e|f\ng|h\ni|j|k\n",
			want:   []rune{'|'},
		},
		{
			name:       "candidate order respected",
			sample:     "a;b,c\nd;e,f\n",
			candidates: []rune{';', ','},
			want:       []rune{';', ','},
		},
	}

	s := NewDelimiterConsistencySniffer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sniff(tt.sample, tt.candidates, "\n")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDelimiterConsistencySnifferIndeterminate(t *testing.T) {
	s := NewDelimiterConsistencySniffer(nil)
	_, err := s.Sniff("hello\nworld\n", nil, "\n")
	assert.ErrorIs(t, err, ErrDelimiterIndeterminate)

	_, err = s.Sniff("", nil, "\n")
	assert.ErrorIs(t, err, ErrDelimiterIndeterminate)
}

func TestDelimiterDistributionSniffer(t *testing.T) {
	// ',' splits into 2 and 9 characters, ';' into 5 and 6
	sample := "ab,cd;efghij\nkl,mn;opqrst\n"
	candidates := []rune{',', ';'}

	t.Run("lowest deviation wins", func(t *testing.T) {
		got, err := NewDelimiterDistributionSniffer(nil, RankLowest).Sniff(sample, candidates, "\n")
		require.NoError(t, err)
		assert.Equal(t, ';', got)
	})

	t.Run("legacy ranking returns second place", func(t *testing.T) {
		got, err := NewDelimiterDistributionSniffer(nil, RankSecondLegacy).Sniff(sample, candidates, "\n")
		require.NoError(t, err)
		assert.Equal(t, ',', got)
	})

	t.Run("legacy ranking with one eligible candidate", func(t *testing.T) {
		got, err := NewDelimiterDistributionSniffer(nil, RankSecondLegacy).Sniff("a|b\nc|d\n", nil, "\n")
		require.NoError(t, err)
		assert.Equal(t, '|', got)
	})

	t.Run("absent candidates are not eligible", func(t *testing.T) {
		got, err := NewDelimiterDistributionSniffer(nil, RankLowest).Sniff("aaaa;b\ncccc;d\n", []rune{',', ';'}, "\n")
		require.NoError(t, err)
		assert.Equal(t, ';', got)
	})

	t.Run("no candidate present", func(t *testing.T) {
		_, err := NewDelimiterDistributionSniffer(nil, RankLowest).Sniff("hello\nworld\n", nil, "\n")
		assert.ErrorIs(t, err, ErrDelimiterIndeterminate)
	})
}

func TestFieldLengthStdDev(t *testing.T) {
	assert.InDelta(t, 0.0, fieldLengthStdDev([]string{"ab", "cd"}), 1e-9)
	assert.InDelta(t, 3.5, fieldLengthStdDev([]string{"ab", "cd;efghij"}), 1e-9)
	assert.InDelta(t, 0.5, fieldLengthStdDev([]string{"žž", "ččč"}), 1e-9)
}

func TestParseRanking(t *testing.T) {
	for _, s := range []string{"", "lowest", " LOWEST "} {
		r, err := ParseRanking(s)
		require.NoError(t, err)
		assert.Equal(t, RankLowest, r)
	}
	r, err := ParseRanking("second")
	require.NoError(t, err)
	assert.Equal(t, RankSecondLegacy, r)
	assert.Equal(t, "second", r.String())

	_, err = ParseRanking("highest")
	assert.Error(t, err)
}
