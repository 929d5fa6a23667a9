package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kosarica/dialect-service/internal/dialect"
)

func TestQuoteStyleSniffer(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   dialect.QuoteStyle
	}{
		{"every field quoted", "\"a\",\"b\"\n\"c\",\"1\"\n", dialect.QuoteAll},
		{"nothing quoted", "a,b\nc,1\n", dialect.QuoteNone},
		{"only text quoted", "\"apple\",1\n\"pear\",2\n", dialect.QuoteNonNumeric},
		{"only special quoted", "\"a,b\",c\n\"d\ne\",f\n", dialect.QuoteMinimal},
		{"quoted number", "\"1\",a\n\"2\",b\n", dialect.QuoteMinimal},
		{"mixed, text majority", "\"apple\",\"pear\",\"x,y\",1\n", dialect.QuoteNonNumeric},
		{"mixed, even split", "\"apple\",\"x,y\",1\n", dialect.QuoteMinimal},
		{"empty", "", dialect.QuoteMinimal},
	}

	s := NewQuoteStyleSniffer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sniff(tt.sample, '"', ',', "\n"))
		})
	}
}
