package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"keyrank/internal/domain"
	"keyrank/internal/metrics"
)

// stage is one fallible step of an ordered chain.
type stage[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// firstSuccess runs stages in order and returns the first successful value
// with the name of the stage that produced it. Every failure is logged and
// counted; when all stages fail the joined errors wrap ErrNoStageSucceeded.
func firstSuccess[T any](ctx context.Context, logger zerolog.Logger, chain string, stages []stage[T]) (T, string, error) {
	var zero T
	var errs []error
	for _, s := range stages {
		v, err := s.run(ctx)
		if err == nil {
			return v, s.name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		metrics.RecordFallback(chain, s.name)
		logger.Debug().Err(err).Str("chain", chain).Str("stage", s.name).Msg("stage failed, trying next")
	}
	return zero, "", fmt.Errorf("%s: %w", chain, errors.Join(append([]error{domain.ErrNoStageSucceeded}, errs...)...))
}
