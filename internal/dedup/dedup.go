// Package dedup removes near-duplicate entries from a ranked list.
package dedup

import (
	"fmt"

	"keyrank/internal/domain"
	"keyrank/internal/similarity"
)

// DefaultThreshold is the similarity above which a later entry is dropped.
const DefaultThreshold = 0.8

// Deduplicator keeps the first (highest-scored) member of every near-duplicate
// group. It never replaces an accepted entry, so Filter is idempotent.
type Deduplicator struct {
	threshold float64
	sim       domain.Similarity
}

// New builds a deduplicator for metric "levenshtein" (default) or "jaccard".
func New(threshold float64, metric string) (*Deduplicator, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	var sim domain.Similarity
	switch metric {
	case "", "levenshtein", "edit":
		sim = similarity.Levenshtein{}
	case "jaccard", "overlap":
		sim = similarity.Jaccard{}
	default:
		return nil, fmt.Errorf("unknown dedup metric: %s", metric)
	}
	return &Deduplicator{threshold: threshold, sim: sim}, nil
}

// Threshold returns the effective threshold.
func (d *Deduplicator) Threshold() float64 { return d.threshold }

// Metric returns the name of the similarity in use.
func (d *Deduplicator) Metric() string { return d.sim.Name() }

// Filter scans order (candidate indices, best first) and returns the indices
// that are not more similar than the threshold to an already accepted one.
func (d *Deduplicator) Filter(order []int, cands []domain.Candidate) []int {
	kept := make([]int, 0, len(order))
	for _, i := range order {
		dup := false
		for _, k := range kept {
			s, err := d.sim.Similarity(&cands[i], &cands[k])
			if err != nil {
				continue
			}
			if s > d.threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, i)
		}
	}
	return kept
}
