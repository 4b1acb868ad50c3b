// Package extract builds rankable candidates (phrases or sentences) from raw text.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"keyrank/internal/chunker"
	"keyrank/internal/domain"
	"keyrank/internal/tokenizer"
)

// Config controls candidate generation.
type Config struct {
	Mode            domain.Mode
	MinUnitLength   int
	MaxPhraseLength int
	MaxCandidates   int
	Blocklist       []string
}

// Extractor turns text into candidates. It is safe for concurrent use when its
// tokenizer is.
type Extractor struct {
	tokenizer domain.Tokenizer
	fallback  domain.Tokenizer
	splitter  *chunker.SentenceSplitter
	cfg       Config
	blocklist map[string]struct{}
	spaces    *regexp.Regexp
	logger    zerolog.Logger
}

// New creates an extractor. A nil tokenizer selects the naive tokenizer.
func New(tok domain.Tokenizer, cfg Config, logger zerolog.Logger) *Extractor {
	naive := tokenizer.NewNaive(nil)
	if tok == nil {
		tok = naive
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModePhrase
	}
	if cfg.MaxPhraseLength <= 0 {
		cfg.MaxPhraseLength = 3
	}
	if cfg.MinUnitLength < 0 {
		cfg.MinUnitLength = 0
	}
	return &Extractor{
		tokenizer: tok,
		fallback:  naive,
		splitter:  chunker.NewSentenceSplitter(),
		cfg:       cfg,
		blocklist: tokenizer.StopwordSet(cfg.Blocklist),
		spaces:    regexp.MustCompile(`\s+`),
		logger:    logger.With().Str("component", "extractor").Logger(),
	}
}

// Mode returns the configured unit mode.
func (e *Extractor) Mode() domain.Mode { return e.cfg.Mode }

// Extract returns candidates in first-occurrence order. Empty input yields an
// empty slice; tokenizer failures fall back to the naive splitter.
func (e *Extractor) Extract(text string) []domain.Candidate {
	return e.ExtractMode(text, e.cfg.Mode)
}

// ExtractMode is Extract with an explicit unit mode.
func (e *Extractor) ExtractMode(text string, mode domain.Mode) []domain.Candidate {
	text = tokenizer.Normalize(text)
	if strings.TrimSpace(text) == "" {
		return []domain.Candidate{}
	}
	sentences := e.splitter.Split(text)

	var cands []domain.Candidate
	switch mode {
	case domain.ModeSentence:
		cands = e.sentences(sentences)
	default:
		cands = e.phrases(sentences)
	}
	return e.capCandidates(cands)
}

func (e *Extractor) tokenize(text string) []domain.Token {
	toks, err := e.tokenizer.Tokenize(text)
	if err == nil {
		return toks
	}
	e.logger.Warn().Err(err).Str("tokenizer", e.tokenizer.Name()).Msg("tokenizer failed, using naive splitter")
	toks, _ = e.fallback.Tokenize(text)
	return toks
}

func (e *Extractor) sentences(sentences []chunker.Sentence) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(sentences))
	index := make(map[string]int, len(sentences))
	for _, s := range sentences {
		if utf8.RuneCountInString(s.Text) < e.cfg.MinUnitLength {
			continue
		}
		var keys []string
		for _, tok := range e.tokenize(s.Text) {
			if tok.Content {
				keys = append(keys, tok.Key())
			}
		}
		if len(keys) == 0 {
			continue
		}
		key := e.key(s.Text)
		if i, ok := index[key]; ok {
			out[i].Frequency++
			continue
		}
		index[key] = len(out)
		out = append(out, domain.Candidate{
			Text:        s.Text,
			Key:         key,
			Tokens:      keys,
			Position:    s.Index,
			EndPosition: s.Index,
			Frequency:   1,
			TopicID:     domain.NoTopic,
		})
	}
	return out
}

func (e *Extractor) phrases(sentences []chunker.Sentence) []domain.Candidate {
	var out []domain.Candidate
	index := make(map[string]int)
	offset := 0
	for _, s := range sentences {
		toks := e.tokenize(s.Text)
		for i := range toks {
			if !toks[i].Content {
				continue
			}
			for n := 1; n <= e.cfg.MaxPhraseLength && i+n <= len(toks); n++ {
				last := toks[i+n-1]
				if !last.Content {
					break
				}
				surface := e.spaces.ReplaceAllString(s.Text[toks[i].Start:last.End], " ")
				if utf8.RuneCountInString(surface) < e.cfg.MinUnitLength {
					continue
				}
				keys := make([]string, 0, n)
				for _, t := range toks[i : i+n] {
					keys = append(keys, t.Key())
				}
				if e.blocked(surface, keys) {
					continue
				}
				key := e.key(surface)
				if j, ok := index[key]; ok {
					out[j].Frequency++
					continue
				}
				index[key] = len(out)
				out = append(out, domain.Candidate{
					Text:        surface,
					Key:         key,
					Tokens:      keys,
					Position:    offset + i,
					EndPosition: offset + i + n - 1,
					Frequency:   1,
					TopicID:     domain.NoTopic,
				})
			}
		}
		offset += len(toks)
	}
	if out == nil {
		return []domain.Candidate{}
	}
	return out
}

func (e *Extractor) blocked(surface string, keys []string) bool {
	if len(e.blocklist) == 0 {
		return false
	}
	if _, ok := e.blocklist[strings.ToLower(surface)]; ok {
		return true
	}
	for _, k := range keys {
		if _, ok := e.blocklist[k]; ok {
			return true
		}
	}
	return false
}

func (e *Extractor) key(text string) string {
	return strings.ToLower(strings.TrimSpace(e.spaces.ReplaceAllString(text, " ")))
}

// capCandidates keeps the MaxCandidates most frequent candidates (earliest first
// on ties) and restores document order.
func (e *Extractor) capCandidates(cands []domain.Candidate) []domain.Candidate {
	if e.cfg.MaxCandidates <= 0 || len(cands) <= e.cfg.MaxCandidates {
		return cands
	}
	kept := make([]domain.Candidate, len(cands))
	copy(kept, cands)
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Frequency != kept[j].Frequency {
			return kept[i].Frequency > kept[j].Frequency
		}
		return kept[i].Position < kept[j].Position
	})
	kept = kept[:e.cfg.MaxCandidates]
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Position != kept[j].Position {
			return kept[i].Position < kept[j].Position
		}
		return len(kept[i].Tokens) < len(kept[j].Tokens)
	})
	e.logger.Debug().Int("total", len(cands)).Int("kept", len(kept)).Msg("candidate set capped")
	return kept
}
