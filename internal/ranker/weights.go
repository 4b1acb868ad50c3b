package ranker

import (
	"fmt"
	"regexp"
	"strings"

	"keyrank/internal/domain"
)

// Category biases candidates that look like a known kind of term.
// A candidate matches when any pattern matches its text or the text ends with
// any suffix.
type Category struct {
	Name     string
	Patterns []string
	Suffixes []string
	Weight   float64
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
	suffixes []string
	weight   float64
}

// Weights multiplies scores by the weight of the first matching category.
// An empty table leaves scores untouched.
type Weights struct {
	cats []compiledCategory
}

// NewWeights compiles a category table.
func NewWeights(cats []Category) (*Weights, error) {
	w := &Weights{}
	for _, c := range cats {
		if c.Weight <= 0 {
			return nil, fmt.Errorf("domain weight %q: weight must be positive, got %v", c.Name, c.Weight)
		}
		cc := compiledCategory{name: c.Name, weight: c.Weight}
		for _, p := range c.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("domain weight %q: %w", c.Name, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		for _, s := range c.Suffixes {
			cc.suffixes = append(cc.suffixes, strings.ToLower(s))
		}
		w.cats = append(w.cats, cc)
	}
	return w, nil
}

// Len returns the number of categories.
func (w *Weights) Len() int { return len(w.cats) }

// Match returns the first category matching text and its weight.
func (w *Weights) Match(text string) (string, float64, bool) {
	lower := strings.ToLower(text)
	for _, c := range w.cats {
		for _, re := range c.patterns {
			if re.MatchString(text) {
				return c.name, c.weight, true
			}
		}
		for _, s := range c.suffixes {
			if strings.HasSuffix(lower, s) {
				return c.name, c.weight, true
			}
		}
	}
	return "", 1, false
}

// Apply returns a copy of scores with every matching candidate reweighted.
func (w *Weights) Apply(scores []float64, cands []domain.Candidate) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)
	if w == nil || len(w.cats) == 0 {
		return out
	}
	for i := range out {
		if i >= len(cands) {
			break
		}
		if _, weight, ok := w.Match(cands[i].Text); ok {
			out[i] *= weight
		}
	}
	return out
}
