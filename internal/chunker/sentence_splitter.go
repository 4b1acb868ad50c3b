package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// Sentence is a trimmed sentence span of the source text.
type Sentence struct {
	Text  string
	Index int
	Start int // byte offset into the source text
	End   int
}

// SentenceSplitter splits text into sentences on Latin and CJK terminators and line breaks.
// A Latin terminator only ends a sentence before whitespace or the end of the text,
// so decimals like "3.12" stay whole.
type SentenceSplitter struct {
	boundary *regexp.Regexp
}

func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{
		boundary: regexp.MustCompile(`[.!?]+(?:\s+|$)|[。！？]+|\n+`),
	}
}

// Split returns the non-empty sentences of text in document order.
func (c *SentenceSplitter) Split(text string) []Sentence {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var spans [][2]int
	prev := 0
	for _, b := range c.boundary.FindAllStringIndex(text, -1) {
		spans = append(spans, [2]int{prev, b[1]})
		prev = b[1]
	}
	if prev < len(text) {
		spans = append(spans, [2]int{prev, len(text)})
	}

	var out []Sentence
	for _, sp := range spans {
		start, end := sp[0], sp[1]
		// Trim spaces but keep offsets aligned with the source.
		for start < end {
			r := rune(text[start])
			if r >= 0x80 || !unicode.IsSpace(r) {
				break
			}
			start++
		}
		for end > start {
			r := rune(text[end-1])
			if r >= 0x80 || !unicode.IsSpace(r) {
				break
			}
			end--
		}
		if start == end {
			continue
		}
		out = append(out, Sentence{
			Text:  text[start:end],
			Index: len(out),
			Start: start,
			End:   end,
		})
	}
	return out
}
