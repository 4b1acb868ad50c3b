package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/fusion"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "auto", cfg.Tokenizer.Type)
	assert.Equal(t, "none", cfg.Embedder.Type)
	assert.Equal(t, "phrase", cfg.Extractor.Mode)
	assert.Equal(t, 0.85, cfg.Ranker.DampingFactor)
	assert.Equal(t, 50, cfg.Ranker.MaxIterations)
	assert.Equal(t, 1e-4, cfg.Ranker.Tolerance)
	assert.Equal(t, []string{"jaccard"}, cfg.Ranker.Signals)
	assert.Equal(t, 0.25, cfg.Cluster.MergeThreshold)
	assert.Equal(t, 0.8, cfg.Dedup.Threshold)
	assert.Equal(t, fusion.Config{Method: fusion.RRF, K: 60, Lambda: 0.5}, cfg.FusionConfig())
	assert.Equal(t, 10, cfg.Selector.TopK)
	assert.False(t, cfg.Refiner.Enabled)
}

func TestParse(t *testing.T) {
	data := []byte(`
extractor:
  mode: sentence
  max_unit_length: 120
  blocklist: [lorem]
ranker:
  signals: [jaccard, multipartite]
  timeout_ms: 250
cluster:
  enabled: true
fusion:
  method: hybrid
  lambda: 0
domain_weights:
  - name: event
    suffixes: [workshop]
    weight: 1.5
embedder:
  type: openai
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "sentence", cfg.Extractor.Mode)
	assert.Equal(t, 120, cfg.Extractor.MaxUnitLength)
	assert.Equal(t, []string{"lorem"}, cfg.Extractor.Blocklist)
	assert.Equal(t, []string{"jaccard", "multipartite"}, cfg.Ranker.Signals)
	assert.Equal(t, 250, cfg.Ranker.TimeoutMs)
	assert.True(t, cfg.Cluster.Enabled)
	assert.Equal(t, 0.0, cfg.FusionConfig().Lambda, "explicit zero lambda survives defaults")
	assert.Equal(t, fusion.Hybrid, cfg.FusionConfig().Method)
	require.Len(t, cfg.DomainWeights, 1)
	assert.Equal(t, 1.5, cfg.DomainWeights[0].Weight)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"tokenizer", "tokenizer: {type: mecab}"},
		{"embedder", "embedder: {type: bert}"},
		{"mode", "extractor: {mode: paragraph}"},
		{"length bounds", "extractor: {min_unit_length: 5, max_unit_length: 3}"},
		{"damping", "ranker: {damping_factor: 1.2}"},
		{"signal", "ranker: {signals: [bm25]}"},
		{"dedup threshold", "dedup: {threshold: 2}"},
		{"dedup metric", "dedup: {metric: soundex}"},
		{"fusion method", "fusion: {method: borda}"},
		{"lambda", "fusion: {lambda: 1.5}"},
		{"weight", "domain_weights: [{name: x, weight: -1}]"},
		{"top k", "selector: {top_k: -1}"},
		{"bad yaml", "ranker: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keyrank.yaml")
	cfg := Default()
	cfg.Selector.TopK = 7
	cfg.Ranker.Signals = []string{"cosine"}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}
