// Package fusion merges independently produced ranked lists into one ranking.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"keyrank/internal/domain"
)

// Method selects the fusion formula.
type Method string

const (
	// RRF adds 1/(k+rank+1) per list.
	RRF Method = "rrf"
	// Weighted multiplies the reciprocal rank by the list score.
	Weighted Method = "weighted"
	// Hybrid blends the list score and the reciprocal rank with lambda.
	Hybrid Method = "hybrid"
)

const (
	DefaultK      = 60
	DefaultLambda = 0.5

	// minListScore replaces non-positive list scores in weighted and hybrid
	// fusion so every present id keeps a positive fused score.
	minListScore = 1e-6
)

// Parse maps a configuration string to a Method.
func Parse(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case RRF, "":
		return RRF, nil
	case Weighted:
		return Weighted, nil
	case Hybrid:
		return Hybrid, nil
	default:
		return "", fmt.Errorf("unknown fusion method: %s", s)
	}
}

// Config holds fusion parameters. Lambda is only used by Hybrid.
type Config struct {
	Method Method
	K      int
	Lambda float64
}

// DefaultConfig returns RRF with k=60 and lambda=0.5.
func DefaultConfig() Config {
	return Config{Method: RRF, K: DefaultK, Lambda: DefaultLambda}
}

// Fused is one entry of the merged ranking.
type Fused struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Sources int     `json:"sources"`
}

// Fuser applies one fusion method.
type Fuser struct {
	cfg Config
}

// New validates cfg. K <= 0 takes the default.
func New(cfg Config) (*Fuser, error) {
	m, err := Parse(string(cfg.Method))
	if err != nil {
		return nil, err
	}
	cfg.Method = m
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		return nil, fmt.Errorf("fusion lambda must be in [0,1], got %v", cfg.Lambda)
	}
	return &Fuser{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (f *Fuser) Config() Config { return f.cfg }

// Fuse merges lists, each sorted best first. An id missing from a list gets
// nothing from it. Only the first occurrence of an id inside one list counts.
// The result is sorted by fused score descending; equal scores keep the order
// in which ids first appear scanning the lists left to right, top to bottom.
func (f *Fuser) Fuse(lists ...[]domain.Ranked) []Fused {
	out := []Fused{}
	index := map[string]int{}
	for _, list := range lists {
		seen := make(map[string]struct{}, len(list))
		for rank, item := range list {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}

			pos, ok := index[item.ID]
			if !ok {
				pos = len(out)
				index[item.ID] = pos
				out = append(out, Fused{ID: item.ID})
			}
			out[pos].Score += f.contribution(rank, item.Score)
			out[pos].Sources++
		}
	}

	first := make(map[string]int, len(out))
	for i, fu := range out {
		first[fu.ID] = i
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return first[out[a].ID] < first[out[b].ID]
	})
	return out
}

func (f *Fuser) contribution(rank int, score float64) float64 {
	rr := 1 / float64(f.cfg.K+rank+1)
	switch f.cfg.Method {
	case Weighted:
		return positive(score) * rr
	case Hybrid:
		return f.cfg.Lambda*positive(score) + (1-f.cfg.Lambda)*rr
	default:
		return rr
	}
}

func positive(score float64) float64 {
	if score <= 0 || score != score {
		return minListScore
	}
	return score
}
