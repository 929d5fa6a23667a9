package sniffer

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"
)

// Placeholders hold the place of terminators and delimiters found inside quoted spans
// so that naive line and field splitting does not break on them.
const (
	NewlinePlaceholder = "[__NEWLINE__]"
	DelimPlaceholder   = "[__DELIMIT__]"
)

// DefaultQuoteChars are the quote characters the masker recognises when none are configured
var DefaultQuoteChars = []rune{'"', '\''}

var anyTerminator = strings.NewReplacer("\r\n", NewlinePlaceholder, "\r", NewlinePlaceholder, "\n", NewlinePlaceholder)

// Masker hides structural characters that fall inside quoted spans.
//
// It is a heuristic and not a tokenizer: an unbalanced quote inside an
// otherwise unquoted field pairs with the next quote it finds. Masked text is
// meant for counting and line splitting, never for extracting field values.
// A Masker is immutable and safe for concurrent use.
type Masker struct {
	quoteChars []rune
	span       *regexp2.Regexp
	strip      *regexp2.Regexp
}

// NewMasker builds a masker for the given quote characters
func NewMasker(quoteChars ...rune) *Masker {
	if len(quoteChars) == 0 {
		quoteChars = DefaultQuoteChars
	}
	class := regexp2.Escape(string(quoteChars))
	return &Masker{
		quoteChars: append([]rune(nil), quoteChars...),
		// non-greedy span between a matching pair, crossing line boundaries
		span: regexp2.MustCompile(`([`+class+`])(.*?)\1`, regexp2.Singleline),
		// same span, but a backslash escapes the next character
		strip: regexp2.MustCompile(`([`+class+`])(?:\\.|(?!\1).)*\1`, regexp2.Singleline),
	}
}

// QuoteChars returns the quote characters this masker pairs up
func (m *Masker) QuoteChars() []rune {
	return append([]rune(nil), m.quoteChars...)
}

// Mask replaces line terminators inside quoted spans with NewlinePlaceholder and,
// when delim is non-zero, every delim inside them with DelimPlaceholder.
// An empty eol masks any of CRLF, CR and LF; otherwise only eol is masked.
func (m *Masker) Mask(text string, delim rune, eol string) string {
	out, err := m.span.ReplaceFunc(text, func(match regexp2.Match) string {
		quoted := match.String()
		if eol == "" {
			quoted = anyTerminator.Replace(quoted)
		} else {
			quoted = strings.ReplaceAll(quoted, eol, NewlinePlaceholder)
		}
		if delim != 0 {
			quoted = strings.ReplaceAll(quoted, string(delim), DelimPlaceholder)
		}
		return quoted
	}, -1, -1)
	if err != nil {
		// only a match timeout can get here; leave the text unmasked
		log.Debug().Err(err).Msg("Quoted span masking aborted")
		return text
	}
	return out
}

// Strip removes quoted spans entirely, leaving only unquoted text
func (m *Masker) Strip(text string) string {
	out, err := m.strip.Replace(text, "", -1, -1)
	if err != nil {
		log.Debug().Err(err).Msg("Quoted span stripping aborted")
		return text
	}
	return out
}

// Restore turns placeholders back into the delimiter and terminator they replaced
func Restore(field string, delim rune, eol string) string {
	if eol == "" {
		eol = "\n"
	}
	field = strings.ReplaceAll(field, NewlinePlaceholder, eol)
	if delim != 0 {
		field = strings.ReplaceAll(field, DelimPlaceholder, string(delim))
	}
	return field
}

// splitLines splits text on eol, or on any terminator when eol is empty
func splitLines(text, eol string) []string {
	if eol == "" {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		eol = "\n"
	}
	return strings.Split(text, eol)
}
