// Package refine post-processes a statistical ranking. Refinement is best
// effort: callers keep the statistical list whenever a refiner fails.
package refine

import (
	"context"

	"keyrank/internal/domain"
)

// Passthrough returns the ranking unchanged. It is the last stage of the
// refinement chain and never fails.
type Passthrough struct{}

func (Passthrough) Name() string { return "passthrough" }

func (Passthrough) Refine(_ context.Context, _ string, ranked []domain.Result) ([]domain.Result, error) {
	out := make([]domain.Result, len(ranked))
	copy(out, ranked)
	return out, nil
}
