// Package similarity scores pairwise relatedness between candidates.
//
// Every strategy returns values in [0,1]. Token overlap (Jaccard) is the
// always-available baseline; vector cosine requires embeddings and is usually
// wrapped in a Fallback so a missing or mismatched vector degrades to overlap.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"keyrank/internal/domain"
)

// Jaccard is |A∩B| / |A∪B| over candidate token sets.
type Jaccard struct{}

func (Jaccard) Name() string { return "jaccard" }

func (Jaccard) Similarity(a, b *domain.Candidate) (float64, error) {
	return JaccardTokens(a.Tokens, b.Tokens), nil
}

// JaccardTokens returns the Jaccard index of two token lists treated as sets.
// It is 0 when either set is empty.
func JaccardTokens(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	inter := 0
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(set) + len(seen) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine compares candidate vectors. Negative correlation is clamped to 0.
type Cosine struct{}

func (Cosine) Name() string { return "cosine" }

func (Cosine) Similarity(a, b *domain.Candidate) (float64, error) {
	if len(a.Vector) == 0 || len(b.Vector) == 0 {
		return 0, domain.ErrNoVector
	}
	c, err := CosineVectors(a.Vector, b.Vector)
	if err != nil {
		return 0, err
	}
	return clamp01(c), nil
}

// CosineVectors is the raw cosine in [-1,1]. Zero-magnitude vectors yield 0.
func CosineVectors(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Left: len(a), Right: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Fallback uses Secondary for any pair where Primary fails.
type Fallback struct {
	Primary   domain.Similarity
	Secondary domain.Similarity
}

func (f Fallback) Name() string {
	return f.Primary.Name() + "|" + f.Secondary.Name()
}

func (f Fallback) Similarity(a, b *domain.Candidate) (float64, error) {
	s, err := f.Primary.Similarity(a, b)
	if err == nil {
		return s, nil
	}
	s, err2 := f.Secondary.Similarity(a, b)
	if err2 != nil {
		return 0, errors.Join(err, err2)
	}
	return s, nil
}

// Levenshtein is 1 - editDistance/maxLen over lowercase candidate text.
type Levenshtein struct{}

func (Levenshtein) Name() string { return "levenshtein" }

func (Levenshtein) Similarity(a, b *domain.Candidate) (float64, error) {
	return EditSimilarity(a.Text, b.Text), nil
}

// EditSimilarity is the normalized edit similarity of two strings, rune-aware.
func EditSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return clamp01(1 - float64(d)/float64(longest))
}

// ByName resolves a strategy name used in configuration.
func ByName(name string) (domain.Similarity, error) {
	switch strings.ToLower(name) {
	case "jaccard", "overlap", "":
		return Jaccard{}, nil
	case "cosine":
		return Fallback{Primary: Cosine{}, Secondary: Jaccard{}}, nil
	case "levenshtein", "edit":
		return Levenshtein{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity %q", name)
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
