// Package tfidf is a corpus-local TF-IDF embedder. One Embedder belongs to one
// run: Prepare replaces its vocabulary.
package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"

	"keyrank/internal/domain"
	"keyrank/internal/tokenizer"
)

// Embedder implements a simple TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	tok        domain.Tokenizer
	vocabulary map[string]int
	idf        []float64
	dimension  int
	prepared   bool
}

// NewEmbedder creates an unprepared TF-IDF embedder. A nil tokenizer uses
// the naive tokenizer with default stopwords.
func NewEmbedder(tok domain.Tokenizer) *Embedder {
	if tok == nil {
		tok = tokenizer.NewNaive(nil)
	}
	return &Embedder{
		tok:        tok,
		vocabulary: make(map[string]int),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range e.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	// stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized TF-IDF vector of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, term := range e.terms(text) {
		if idx, ok := e.vocabulary[term]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) terms(text string) []string {
	toks, err := e.tok.Tokenize(tokenizer.Normalize(text))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.Content {
			out = append(out, t.Key())
		}
	}
	return out
}
