package tokenizer

import (
	"fmt"
	"unicode"

	"github.com/rs/zerolog"

	"keyrank/internal/domain"
)

// Chain tries each tokenizer in order and returns the first success.
type Chain struct {
	tokenizers []domain.Tokenizer
	logger     zerolog.Logger
}

// NewChain builds an ordered chain. Callers normally end it with a Naive tokenizer.
func NewChain(logger zerolog.Logger, tokenizers ...domain.Tokenizer) *Chain {
	return &Chain{
		tokenizers: tokenizers,
		logger:     logger.With().Str("component", "tokenizer").Logger(),
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Tokenize(text string) ([]domain.Token, error) {
	var lastErr error
	for _, t := range c.tokenizers {
		toks, err := t.Tokenize(text)
		if err == nil {
			return toks, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Str("tokenizer", t.Name()).Msg("tokenizer failed, trying next")
	}
	if lastErr == nil {
		return nil, fmt.Errorf("tokenizer chain: %w", domain.ErrNoStageSucceeded)
	}
	return nil, fmt.Errorf("tokenizer chain: %w", lastErr)
}

// Auto routes text containing Japanese script to the morphological tokenizer
// and everything else to the plain tokenizer.
type Auto struct {
	japanese domain.Tokenizer
	plain    domain.Tokenizer
}

func NewAuto(japanese, plain domain.Tokenizer) *Auto {
	return &Auto{japanese: japanese, plain: plain}
}

func (a *Auto) Name() string { return "auto" }

func (a *Auto) Tokenize(text string) ([]domain.Token, error) {
	if a.japanese != nil && ContainsJapanese(text) {
		return a.japanese.Tokenize(text)
	}
	return a.plain.Tokenize(text)
}

// ContainsJapanese reports whether text has any Han, Hiragana or Katakana rune.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}
