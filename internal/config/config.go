package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"keyrank/internal/domain"
	"keyrank/internal/fusion"
	"keyrank/internal/logging"
)

// TokenizerConfig selects the tokenizer chain.
type TokenizerConfig struct {
	// Type is auto (kagome for Japanese, naive otherwise), kagome or naive.
	Type      string   `yaml:"type"`
	Stopwords []string `yaml:"stopwords,omitempty"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ExtractorConfig configures candidate extraction.
type ExtractorConfig struct {
	Mode            string   `yaml:"mode"`
	MinUnitLength   int      `yaml:"min_unit_length"`
	MaxUnitLength   int      `yaml:"max_unit_length"`
	MaxPhraseLength int      `yaml:"max_phrase_length"`
	MaxCandidates   int      `yaml:"max_candidates"`
	Blocklist       []string `yaml:"blocklist,omitempty"`
}

// RankerConfig configures the power iteration and the similarity signals.
type RankerConfig struct {
	DampingFactor float64  `yaml:"damping_factor"`
	MaxIterations int      `yaml:"max_iterations"`
	Tolerance     float64  `yaml:"tolerance"`
	Signals       []string `yaml:"signals"`
	TimeoutMs     int      `yaml:"timeout_ms"`
}

// ClusterConfig configures topic clustering for the multipartite signal.
type ClusterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	MergeThreshold float64 `yaml:"merge_threshold"`
}

// DedupConfig configures near-duplicate removal.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
	Metric    string  `yaml:"metric"`
}

// FusionConfig configures rank fusion.
type FusionConfig struct {
	Method string   `yaml:"method"`
	K      int      `yaml:"k"`
	Lambda *float64 `yaml:"lambda,omitempty"`
}

// SelectorConfig configures the final cutoffs.
type SelectorConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// DomainWeightConfig is one category of the domain weight table.
type DomainWeightConfig struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns,omitempty"`
	Suffixes []string `yaml:"suffixes,omitempty"`
	Weight   float64  `yaml:"weight"`
}

// CircuitBreakerConfig configures the refiner's breaker.
type CircuitBreakerConfig struct {
	Failures    uint32 `yaml:"failures"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RefinerConfig configures optional LLM refinement.
type RefinerConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	BaseURL        string               `yaml:"base_url"`
	APIKeyEnv      string               `yaml:"api_key_env"`
	Model          string               `yaml:"model"`
	TimeoutSecs    int                  `yaml:"timeout_secs"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// BatchConfig configures ExtractBatch.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log           logging.Config       `yaml:"log"`
	Tokenizer     TokenizerConfig      `yaml:"tokenizer"`
	Embedder      EmbedderConfig       `yaml:"embedder"`
	Extractor     ExtractorConfig      `yaml:"extractor"`
	Ranker        RankerConfig         `yaml:"ranker"`
	Cluster       ClusterConfig        `yaml:"cluster"`
	Dedup         DedupConfig          `yaml:"dedup"`
	Fusion        FusionConfig         `yaml:"fusion"`
	Selector      SelectorConfig       `yaml:"selector"`
	DomainWeights []DomainWeightConfig `yaml:"domain_weights,omitempty"`
	Refiner       RefinerConfig        `yaml:"refiner"`
	Batch         BatchConfig          `yaml:"batch"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./keyrank.yaml first, then ~/.config/keyrank/config.yaml.
// If neither exists, it writes defaults to ~/.config/keyrank/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "keyrank.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "keyrank", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Tokenizer.Type == "" {
		cfg.Tokenizer.Type = "auto"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "none"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Extractor.Mode == "" {
		cfg.Extractor.Mode = string(domain.ModePhrase)
	}
	if cfg.Extractor.MinUnitLength == 0 {
		cfg.Extractor.MinUnitLength = 2
	}
	if cfg.Extractor.MaxPhraseLength == 0 {
		cfg.Extractor.MaxPhraseLength = 3
	}
	if cfg.Extractor.MaxCandidates == 0 {
		cfg.Extractor.MaxCandidates = 200
	}
	if cfg.Ranker.DampingFactor == 0 {
		cfg.Ranker.DampingFactor = 0.85
	}
	if cfg.Ranker.MaxIterations == 0 {
		cfg.Ranker.MaxIterations = 50
	}
	if cfg.Ranker.Tolerance == 0 {
		cfg.Ranker.Tolerance = 1e-4
	}
	if len(cfg.Ranker.Signals) == 0 {
		cfg.Ranker.Signals = []string{"jaccard"}
	}
	if cfg.Cluster.MergeThreshold == 0 {
		cfg.Cluster.MergeThreshold = 0.25
	}
	if cfg.Dedup.Threshold == 0 {
		cfg.Dedup.Threshold = 0.8
	}
	if cfg.Dedup.Metric == "" {
		cfg.Dedup.Metric = "levenshtein"
	}
	if cfg.Fusion.Method == "" {
		cfg.Fusion.Method = string(fusion.RRF)
	}
	if cfg.Fusion.K == 0 {
		cfg.Fusion.K = fusion.DefaultK
	}
	if cfg.Fusion.Lambda == nil {
		l := fusion.DefaultLambda
		cfg.Fusion.Lambda = &l
	}
	if cfg.Selector.TopK == 0 {
		cfg.Selector.TopK = 10
	}
	if cfg.Refiner.APIKeyEnv == "" {
		cfg.Refiner.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Refiner.TimeoutSecs == 0 {
		cfg.Refiner.TimeoutSecs = 15
	}
	if cfg.Refiner.CircuitBreaker.Failures == 0 {
		cfg.Refiner.CircuitBreaker.Failures = 3
	}
	if cfg.Refiner.CircuitBreaker.TimeoutSecs == 0 {
		cfg.Refiner.CircuitBreaker.TimeoutSecs = 30
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 4
	}
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	switch c.Tokenizer.Type {
	case "auto", "kagome", "naive":
	default:
		return fmt.Errorf("unknown tokenizer: %s", c.Tokenizer.Type)
	}
	switch c.Embedder.Type {
	case "none", "tfidf", "openai":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch domain.Mode(c.Extractor.Mode) {
	case domain.ModePhrase, domain.ModeSentence:
	default:
		return fmt.Errorf("unknown extractor mode: %s", c.Extractor.Mode)
	}
	if c.Extractor.MaxUnitLength > 0 && c.Extractor.MaxUnitLength < c.Extractor.MinUnitLength {
		return fmt.Errorf("max_unit_length %d is below min_unit_length %d", c.Extractor.MaxUnitLength, c.Extractor.MinUnitLength)
	}
	if c.Ranker.DampingFactor <= 0 || c.Ranker.DampingFactor >= 1 {
		return fmt.Errorf("damping_factor must be in (0,1), got %v", c.Ranker.DampingFactor)
	}
	if c.Ranker.MaxIterations < 0 || c.Ranker.Tolerance < 0 || c.Ranker.TimeoutMs < 0 {
		return errors.New("ranker max_iterations, tolerance and timeout_ms must not be negative")
	}
	for _, s := range c.Ranker.Signals {
		switch s {
		case "jaccard", "cosine", "multipartite":
		default:
			return fmt.Errorf("unknown ranking signal: %s", s)
		}
	}
	if c.Cluster.MergeThreshold < 0 || c.Cluster.MergeThreshold > 1 {
		return fmt.Errorf("merge_threshold must be in [0,1], got %v", c.Cluster.MergeThreshold)
	}
	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup threshold must be in [0,1], got %v", c.Dedup.Threshold)
	}
	switch c.Dedup.Metric {
	case "levenshtein", "jaccard":
	default:
		return fmt.Errorf("unknown dedup metric: %s", c.Dedup.Metric)
	}
	if _, err := fusion.Parse(c.Fusion.Method); err != nil {
		return err
	}
	if c.Fusion.Lambda != nil && (*c.Fusion.Lambda < 0 || *c.Fusion.Lambda > 1) {
		return fmt.Errorf("fusion lambda must be in [0,1], got %v", *c.Fusion.Lambda)
	}
	if c.Selector.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.Selector.TopK)
	}
	for _, w := range c.DomainWeights {
		if w.Weight <= 0 {
			return fmt.Errorf("domain weight %q must be positive", w.Name)
		}
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch concurrency must not be negative, got %d", c.Batch.Concurrency)
	}
	return nil
}

// FusionConfig returns the fusion settings in the fusion package's terms.
func (c *AppConfig) FusionConfig() fusion.Config {
	fc := fusion.Config{Method: fusion.Method(c.Fusion.Method), K: c.Fusion.K, Lambda: fusion.DefaultLambda}
	if c.Fusion.Lambda != nil {
		fc.Lambda = *c.Fusion.Lambda
	}
	return fc
}
