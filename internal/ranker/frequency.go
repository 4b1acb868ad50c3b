package ranker

import (
	"math"

	"keyrank/internal/domain"
)

// FrequencyScores ranks candidates without a graph: each token carries its
// corpus frequency normalized by the maximum, a candidate sums its tokens'
// weights divided by sqrt(token count) and is scaled by its own frequency.
func FrequencyScores(cands []domain.Candidate) []float64 {
	freq := map[string]float64{}
	for _, c := range cands {
		for _, tok := range c.Tokens {
			freq[tok] += float64(max(c.Frequency, 1))
		}
	}

	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	scores := make([]float64, len(cands))
	for i, c := range cands {
		if len(c.Tokens) == 0 {
			continue
		}
		s := 0.0
		for _, tok := range c.Tokens {
			s += freq[tok]
		}
		s /= math.Sqrt(float64(len(c.Tokens)))
		scores[i] = s * float64(max(c.Frequency, 1))
	}
	return scores
}
