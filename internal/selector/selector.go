// Package selector applies the final cutoffs to a ranked result list.
package selector

import (
	"unicode/utf8"

	"keyrank/internal/domain"
)

// Config holds the cutoffs. Zero disables a bound.
type Config struct {
	MinUnitLength int
	MaxUnitLength int
	TopK          int
	MinScore      float64
}

// Select keeps results, in their given order, whose text length in runes lies
// within the bounds and whose score reaches MinScore, up to TopK of them.
// The input slice is not modified.
func Select(results []domain.Result, cfg Config) []domain.Result {
	out := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if cfg.TopK > 0 && len(out) >= cfg.TopK {
			break
		}
		n := utf8.RuneCountInString(r.Text)
		if cfg.MinUnitLength > 0 && n < cfg.MinUnitLength {
			continue
		}
		if cfg.MaxUnitLength > 0 && n > cfg.MaxUnitLength {
			continue
		}
		if r.Score < cfg.MinScore {
			continue
		}
		out = append(out, r)
	}
	return out
}
