// Package ranker scores candidates by damped power iteration over the candidate
// graph, with a frequency-based ordering for graphs that carry no edges.
package ranker

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"keyrank/internal/domain"
	"keyrank/internal/graph"
)

const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 50
	DefaultTolerance     = 1e-4
)

// Config tunes the power iteration. Zero values take the defaults.
type Config struct {
	Damping       float64
	MaxIterations int
	Tolerance     float64
}

func (c Config) withDefaults() Config {
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = DefaultDamping
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	return c
}

// Result is the outcome of one ranking run.
type Result struct {
	Scores     []float64
	Iterations int
	Converged  bool
}

// PageRank is the weighted TextRank scorer.
type PageRank struct {
	cfg    Config
	logger zerolog.Logger
}

// NewPageRank creates a scorer.
func NewPageRank(cfg Config, logger zerolog.Logger) *PageRank {
	return &PageRank{
		cfg:    cfg.withDefaults(),
		logger: logger.With().Str("component", "ranker").Logger(),
	}
}

// Config returns the effective configuration.
func (p *PageRank) Config() Config { return p.cfg }

// Rank iterates score[i] = (1-d) + d * sum_j w(j,i)/out(j) * score[j] from an
// all-ones vector until the largest per-node change drops below the tolerance.
// An edgeless graph yields ErrEdgelessGraph so callers can fall back. When ctx is
// done between iterations the scores of the last completed iteration are returned.
func (p *PageRank) Rank(ctx context.Context, g *graph.Graph) (Result, error) {
	n := g.Len()
	if n == 0 {
		return Result{Scores: []float64{}, Converged: true}, nil
	}
	if g.IsEdgeless() {
		return Result{}, domain.ErrEdgelessGraph
	}

	d := p.cfg.Damping
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1
	}
	next := make([]float64, n)

	res := Result{}
	for iter := 0; iter < p.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			p.logger.Warn().
				Int("iterations", res.Iterations).
				Err(ctx.Err()).
				Msg("ranking interrupted, using last completed iteration")
			res.Scores = scores
			return res, nil
		}

		delta := 0.0
		for i := 0; i < n; i++ {
			sum := 0.0
			for _, e := range g.Incoming(i) {
				out := g.OutWeight(e.From)
				if out == 0 {
					continue
				}
				sum += e.Weight / out * scores[e.From]
			}
			next[i] = (1 - d) + d*sum
			if diff := math.Abs(next[i] - scores[i]); diff > delta {
				delta = diff
			}
		}
		scores, next = next, scores
		res.Iterations = iter + 1
		if delta < p.cfg.Tolerance {
			res.Converged = true
			break
		}
	}

	if !res.Converged {
		p.logger.Warn().
			Int("iterations", res.Iterations).
			Int("nodes", n).
			Msg("ranking did not converge, using last scores")
	}
	res.Scores = scores
	return res, nil
}

// Order returns candidate indices by score descending, earlier position first
// on equal scores.
func Order(scores []float64, cands []domain.Candidate) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return position(cands, ia) < position(cands, ib)
	})
	return idx
}

func position(cands []domain.Candidate, i int) int {
	if i < len(cands) {
		return cands[i].Position
	}
	return i
}
