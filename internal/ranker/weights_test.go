package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
)

func TestWeights_Apply(t *testing.T) {
	w, err := NewWeights([]Category{
		{Name: "event", Suffixes: []string{"Workshop", "セミナー"}, Weight: 2},
		{Name: "place", Patterns: []string{`^(Tokyo|Osaka)$`}, Weight: 1.5},
		{Name: "catchall", Patterns: []string{`.*`}, Weight: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())

	cands := []domain.Candidate{
		{Text: "python workshop"},
		{Text: "Tokyo"},
		{Text: "AIセミナー"},
		{Text: "machine learning"},
	}
	scores := []float64{1, 1, 1, 1}

	got := w.Apply(scores, cands)

	assert.Equal(t, []float64{2, 1.5, 2, 0.5}, got)
	assert.Equal(t, []float64{1, 1, 1, 1}, scores, "input untouched")
}

func TestWeights_EmptyTableIsNeutral(t *testing.T) {
	w, err := NewWeights(nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.3, 0.2}, w.Apply([]float64{0.3, 0.2}, []domain.Candidate{{Text: "a"}, {Text: "b"}}))

	var nilWeights *Weights
	assert.Equal(t, []float64{0.3}, nilWeights.Apply([]float64{0.3}, nil))
}

func TestWeights_Invalid(t *testing.T) {
	_, err := NewWeights([]Category{{Name: "bad", Weight: 0}})
	assert.Error(t, err)

	_, err = NewWeights([]Category{{Name: "bad", Patterns: []string{"("}, Weight: 1}})
	assert.Error(t, err)
}

func TestWeights_Match(t *testing.T) {
	w, err := NewWeights([]Category{{Name: "event", Suffixes: []string{"class"}, Weight: 1.2}})
	require.NoError(t, err)

	name, weight, ok := w.Match("Cooking Class")
	assert.True(t, ok)
	assert.Equal(t, "event", name)
	assert.Equal(t, 1.2, weight)

	_, weight, ok = w.Match("osaka")
	assert.False(t, ok)
	assert.Equal(t, 1.0, weight)
}
