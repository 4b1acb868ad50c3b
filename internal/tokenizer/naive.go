package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"keyrank/internal/domain"
)

// Normalize folds full-width Latin, half-width kana and compatibility forms (NFKC).
// Token offsets always refer to the normalized text.
func Normalize(text string) string {
	return norm.NFKC.String(text)
}

// Naive is a punctuation/whitespace splitter with a suffix-based coarse tagger.
// It never fails and is the last resort of every tokenizer chain.
type Naive struct {
	tokenPattern *regexp.Regexp
	hiragana     *regexp.Regexp
	number       *regexp.Regexp
	latin        *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewNaive creates a naive tokenizer. A nil stopword set selects the built-in English list.
func NewNaive(stopwords map[string]struct{}) *Naive {
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	return &Naive{
		tokenPattern: regexp.MustCompile(`\p{Han}+|[\p{Katakana}ー]+|\p{Hiragana}+|[\p{Latin}\p{Greek}\p{Cyrillic}\p{Hangul}\p{Arabic}\p{Hebrew}\p{Thai}\p{Devanagari}\p{M}]+(?:['’][\p{Latin}]+)*|\p{N}+(?:[.,]\p{N}+)*`),
		hiragana:     regexp.MustCompile(`^\p{Hiragana}+$`),
		number:       regexp.MustCompile(`^\p{N}`),
		latin:        regexp.MustCompile(`^\p{Latin}`),
		stopwords:    stopwords,
	}
}

func (n *Naive) Name() string { return "naive" }

// Tokenize splits text into tagged tokens. Offsets refer to text as given.
func (n *Naive) Tokenize(text string) ([]domain.Token, error) {
	spans := n.tokenPattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return nil, nil
	}
	out := make([]domain.Token, 0, len(spans))
	for _, sp := range spans {
		surface := text[sp[0]:sp[1]]
		pos, content := n.tag(surface)
		out = append(out, domain.Token{
			Surface: surface,
			Base:    strings.ToLower(surface),
			POS:     pos,
			Start:   sp[0],
			End:     sp[1],
			Content: content,
		})
	}
	return out, nil
}

// tag assigns a coarse part of speech and whether the token carries content.
func (n *Naive) tag(surface string) (string, bool) {
	lower := strings.ToLower(surface)
	switch {
	case n.number.MatchString(surface):
		return "number", false
	case n.hiragana.MatchString(surface):
		return "particle", false
	case isStopword(n.stopwords, lower):
		return "function", false
	case !n.latin.MatchString(surface):
		return "noun", true
	case utf8.RuneCountInString(lower) < 2:
		return "other", false
	case strings.HasSuffix(lower, "ly"):
		return "adverb", false
	case strings.HasSuffix(lower, "ing"), strings.HasSuffix(lower, "ed"):
		return "verb", true
	default:
		return "noun", true
	}
}

func isStopword(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}
