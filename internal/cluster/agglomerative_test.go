package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
	"keyrank/internal/similarity"
)

func candidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{Position: i, Frequency: 1, TopicID: domain.NoTopic}
	}
	return out
}

func matrix(n int, pairs map[[2]int]float64) similarity.Matrix {
	m := make(similarity.Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for p, v := range pairs {
		m[p[0]][p[1]] = v
		m[p[1]][p[0]] = v
	}
	return m
}

func TestAgglomerative_Empty(t *testing.T) {
	assert.Nil(t, NewAgglomerative(0.3).Cluster(nil, nil))
}

func TestAgglomerative_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultMergeThreshold, NewAgglomerative(0).Threshold())
	assert.Equal(t, 0.3, NewAgglomerative(0.3).Threshold())
}

func TestAgglomerative_MergesSimilar(t *testing.T) {
	cands := candidates(3)
	m := matrix(3, map[[2]int]float64{{0, 1}: 0.5})

	clusters := NewAgglomerative(0.25).Cluster(cands, m)

	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1}, clusters[0].Members)
	assert.Equal(t, []int{2}, clusters[1].Members)
	assert.Equal(t, 0, cands[0].TopicID)
	assert.Equal(t, 0, cands[1].TopicID)
	assert.Equal(t, 1, cands[2].TopicID)
}

func TestAgglomerative_AverageLinkage(t *testing.T) {
	cands := candidates(3)
	// Single linkage would merge 2 via the 0.3 pair; the mean is only 0.2.
	m := matrix(3, map[[2]int]float64{{0, 1}: 0.9, {0, 2}: 0.3, {1, 2}: 0.1})

	clusters := NewAgglomerative(0.25).Cluster(cands, m)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1}, clusters[0].Members)
}

func TestAgglomerative_TieBreakLowestCombinedIndex(t *testing.T) {
	m := matrix(3, map[[2]int]float64{{0, 2}: 0.8, {1, 2}: 0.8})

	for run := 0; run < 5; run++ {
		cands := candidates(3)
		clusters := NewAgglomerative(0.5).Cluster(cands, m)
		require.Len(t, clusters, 2)
		assert.Equal(t, []int{0, 2}, clusters[0].Members)
		assert.Equal(t, []int{1}, clusters[1].Members)
	}
}

func TestAgglomerative_ChainsUntilBelowThreshold(t *testing.T) {
	cands := candidates(4)
	m := matrix(4, map[[2]int]float64{{0, 1}: 0.9, {2, 3}: 0.9, {0, 2}: 0.3, {1, 3}: 0.3, {0, 3}: 0.3, {1, 2}: 0.3})

	clusters := NewAgglomerative(0.25).Cluster(cands, m)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, clusters[0].Members)

	clusters = NewAgglomerative(0.35).Cluster(candidates(4), m)
	require.Len(t, clusters, 2)
}

func TestAgglomerative_Representative(t *testing.T) {
	cands := candidates(3)
	cands[1].Frequency = 4
	cands[2].Frequency = 4
	m := matrix(3, map[[2]int]float64{{0, 1}: 0.9, {0, 2}: 0.9, {1, 2}: 0.9})

	clusters := NewAgglomerative(0.25).Cluster(cands, m)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Representative)
}
