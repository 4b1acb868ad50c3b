package similarity

import (
	"github.com/rs/zerolog"

	"keyrank/internal/domain"
)

// Matrix is a symmetric similarity matrix with a zero diagonal.
type Matrix [][]float64

// Build computes the pairwise matrix once per run. Pairs whose similarity
// cannot be computed score 0 and are counted in the returned failure total.
func Build(cands []domain.Candidate, sim domain.Similarity, logger zerolog.Logger) (Matrix, int) {
	n := len(cands)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	failures := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s, err := sim.Similarity(&cands[i], &cands[j])
			if err != nil {
				failures++
				if failures == 1 {
					logger.Debug().Err(err).Str("similarity", sim.Name()).Msg("pair similarity unavailable, scoring 0")
				}
				s = 0
			}
			s = clamp01(s)
			m[i][j] = s
			m[j][i] = s
		}
	}
	return m, failures
}

// Len returns the number of rows.
func (m Matrix) Len() int { return len(m) }

// Max returns the largest off-diagonal value.
func (m Matrix) Max() float64 {
	best := 0.0
	for i := range m {
		for j := range m[i] {
			if i != j && m[i][j] > best {
				best = m[i][j]
			}
		}
	}
	return best
}
