package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
)

func TestJaccardTokens(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"partial", []string{"python", "workshop", "beginners", "tokyo"}, []string{"python", "machine", "learning", "workshop"}, 2.0 / 6.0},
		{"duplicates ignored", []string{"a", "a", "b"}, []string{"a", "a"}, 0.5},
		{"empty left", nil, []string{"a"}, 0},
		{"empty right", []string{"a"}, []string{}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, JaccardTokens(tt.a, tt.b), 1e-12)
		})
	}
}

func TestCosineVectors(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", []float64{}, []float64{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineVectors(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CosineVectors([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCosine_ClampsNegative(t *testing.T) {
	a := &domain.Candidate{Vector: []float64{1, 0}}
	b := &domain.Candidate{Vector: []float64{-1, 0.1}}
	s, err := Cosine{}.Similarity(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestCosine_MissingVector(t *testing.T) {
	_, err := Cosine{}.Similarity(&domain.Candidate{}, &domain.Candidate{Vector: []float64{1}})
	assert.ErrorIs(t, err, domain.ErrNoVector)
}

func TestFallback_DimensionMismatchUsesOverlap(t *testing.T) {
	a := &domain.Candidate{Tokens: []string{"x", "y"}, Vector: []float64{1, 0}}
	b := &domain.Candidate{Tokens: []string{"x"}, Vector: []float64{1, 0, 0}}

	sim, err := ByName("cosine")
	require.NoError(t, err)
	s, err := sim.Similarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 1e-12)
	assert.Equal(t, "cosine|jaccard", sim.Name())
}

type errSim struct{}

func (errSim) Name() string { return "err" }
func (errSim) Similarity(_, _ *domain.Candidate) (float64, error) {
	return 0, errors.New("boom")
}

func TestFallback_BothFail(t *testing.T) {
	_, err := Fallback{Primary: errSim{}, Secondary: errSim{}}.Similarity(&domain.Candidate{}, &domain.Candidate{})
	assert.Error(t, err)
}

func TestIdenticalCandidatesAreFullySimilar(t *testing.T) {
	c := domain.Candidate{Text: "graph ranking", Tokens: []string{"graph", "ranking"}, Vector: []float64{0.3, 0.4}}
	for _, sim := range []domain.Similarity{Jaccard{}, Cosine{}, Levenshtein{}} {
		s, err := sim.Similarity(&c, &c)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s, 1e-9, sim.Name())
	}
}

func TestEditSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, EditSimilarity("Python", "python"))
	assert.InDelta(t, 1-1.0/9.0, EditSimilarity("workshop", "workshops"), 1e-9)
	assert.InDelta(t, 0.0, EditSimilarity("abc", "xyz"), 1e-9)
	assert.Equal(t, 1.0, EditSimilarity("", ""))
	assert.InDelta(t, 2.0/3.0, EditSimilarity("東京都", "東京"), 1e-9)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "jaccard", "cosine", "levenshtein", "EDIT"} {
		_, err := ByName(name)
		assert.NoError(t, err, name)
	}
	_, err := ByName("bm25")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cands := []domain.Candidate{
		{Tokens: []string{"python", "workshop", "beginners", "tokyo"}},
		{Tokens: []string{"python", "machine", "learning", "workshop"}},
		{Tokens: []string{"cooking", "class", "osaka"}},
	}
	m, failures := Build(cands, Jaccard{}, zerolog.Nop())

	require.Equal(t, 3, m.Len())
	assert.Zero(t, failures)
	for i := range m {
		assert.Zero(t, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
			assert.GreaterOrEqual(t, m[i][j], 0.0)
			assert.LessOrEqual(t, m[i][j], 1.0)
		}
	}
	assert.InDelta(t, 1.0/3.0, m[0][1], 1e-12)
	assert.Zero(t, m[0][2])
	assert.InDelta(t, 1.0/3.0, m.Max(), 1e-12)
}

func TestBuild_CountsFailures(t *testing.T) {
	cands := []domain.Candidate{{}, {}, {}}
	m, failures := Build(cands, errSim{}, zerolog.Nop())
	assert.Equal(t, 3, failures)
	assert.Zero(t, m.Max())
	assert.False(t, math.IsNaN(m[0][1]))
}
