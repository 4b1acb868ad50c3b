package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates there was nothing to rank.
	ErrEmptyInput = errors.New("empty input")

	// ErrEdgelessGraph indicates the candidate graph carries no weighted edges.
	ErrEdgelessGraph = errors.New("graph has no edges")

	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNoVector indicates a candidate has no embedding attached.
	ErrNoVector = errors.New("candidate has no vector")

	// ErrRefinementFailed indicates the refinement step produced nothing usable.
	ErrRefinementFailed = errors.New("refinement failed")

	// ErrNoStageSucceeded indicates every stage of a chain failed.
	ErrNoStageSucceeded = errors.New("no stage succeeded")
)

// DimensionMismatchError carries the two vector lengths that disagreed.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: %d != %d", e.Left, e.Right)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match wrapped DimensionMismatchErrors.
func (e *DimensionMismatchError) Is(target error) bool {
	if target == ErrDimensionMismatch {
		return true
	}
	_, ok := target.(*DimensionMismatchError)
	return ok
}
