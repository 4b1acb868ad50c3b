// Package cluster groups near-duplicate candidates into topics with
// average-linkage hierarchical agglomerative clustering.
package cluster

import (
	"sort"

	"keyrank/internal/domain"
	"keyrank/internal/similarity"
)

// DefaultMergeThreshold is the minimum mean linkage for two clusters to merge.
const DefaultMergeThreshold = 0.25

// Cluster is one topic. Members and Representative are candidate indices.
type Cluster struct {
	ID             int
	Members        []int
	Representative int
}

// Agglomerative merges clusters while their mean pairwise similarity reaches the threshold.
type Agglomerative struct {
	threshold float64
}

func NewAgglomerative(threshold float64) *Agglomerative {
	if threshold <= 0 {
		threshold = DefaultMergeThreshold
	}
	return &Agglomerative{threshold: threshold}
}

// Threshold returns the merge threshold in use.
func (a *Agglomerative) Threshold() float64 { return a.threshold }

// Cluster groups candidates and writes each cluster id into Candidate.TopicID.
// Equal linkages are resolved by the lowest combined slot index, then the lowest
// first slot, so identical input always yields identical clusters.
func (a *Agglomerative) Cluster(cands []domain.Candidate, m similarity.Matrix) []Cluster {
	n := len(cands)
	if n == 0 {
		return nil
	}

	members := make([][]int, n)
	active := make([]bool, n)
	// sums[i][j] is the total pairwise similarity between slot i and slot j.
	sums := make([][]float64, n)
	for i := 0; i < n; i++ {
		members[i] = []int{i}
		active[i] = true
		sums[i] = make([]float64, n)
		copy(sums[i], m[i])
	}

	for {
		bestA, bestB := -1, -1
		best := -1.0
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				mean := sums[i][j] / float64(len(members[i])*len(members[j]))
				if mean > best || (mean == best && preferPair(i, j, bestA, bestB)) {
					best, bestA, bestB = mean, i, j
				}
			}
		}
		if bestA < 0 || best < a.threshold {
			break
		}
		// Merge bestB into bestA.
		members[bestA] = append(members[bestA], members[bestB]...)
		active[bestB] = false
		for k := 0; k < n; k++ {
			if !active[k] || k == bestA {
				continue
			}
			sums[bestA][k] += sums[bestB][k]
			sums[k][bestA] = sums[bestA][k]
		}
	}

	var out []Cluster
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		id := len(out)
		ms := sortedInts(members[i])
		for _, idx := range ms {
			cands[idx].TopicID = id
		}
		out = append(out, Cluster{ID: id, Members: ms, Representative: representative(cands, ms)})
	}
	return out
}

func preferPair(i, j, bestA, bestB int) bool {
	if bestA < 0 {
		return true
	}
	if i+j != bestA+bestB {
		return i+j < bestA+bestB
	}
	return i < bestA
}

// representative is the most frequent member, earliest position on ties.
func representative(cands []domain.Candidate, members []int) int {
	best := members[0]
	for _, idx := range members[1:] {
		c, b := cands[idx], cands[best]
		if c.Frequency > b.Frequency || (c.Frequency == b.Frequency && c.Position < b.Position) {
			best = idx
		}
	}
	return best
}

func sortedInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	return out
}
