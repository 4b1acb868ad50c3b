package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/similarity"
)

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder(nil)
	require.NoError(t, e.Prepare([]string{
		"Python workshop for beginners",
		"Python machine learning workshop",
		"Cooking class in Osaka",
	}))

	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 0)

	a, err := e.Embed(context.Background(), "Python workshop")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "python workshops and python workshop")
	require.NoError(t, err)
	c, err := e.Embed(context.Background(), "Cooking class")
	require.NoError(t, err)

	norm := 0.0
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	ab, err := similarity.CosineVectors(a, b)
	require.NoError(t, err)
	ac, err := similarity.CosineVectors(a, c)
	require.NoError(t, err)
	assert.Greater(t, ab, ac)
	assert.InDelta(t, 0, ac, 1e-12)
}

func TestEmbedder_UnknownTermsGiveZeroVector(t *testing.T) {
	e := NewEmbedder(nil)
	require.NoError(t, e.Prepare([]string{"python workshop"}))

	v, err := e.Embed(context.Background(), "osaka")
	require.NoError(t, err)
	assert.Len(t, v, e.Dimension())
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedder_Errors(t *testing.T) {
	e := NewEmbedder(nil)

	_, err := e.Embed(context.Background(), "python")
	assert.Error(t, err, "not prepared")

	assert.Error(t, e.Prepare(nil))
	assert.Error(t, e.Prepare([]string{"the and of"}))

	require.NoError(t, e.Prepare([]string{"python"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Embed(ctx, "python")
	assert.ErrorIs(t, err, context.Canceled)
}
