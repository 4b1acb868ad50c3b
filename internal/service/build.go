package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"keyrank/internal/config"
	"keyrank/internal/domain"
	"keyrank/internal/embedding"
	"keyrank/internal/embedding/openai"
	"keyrank/internal/embedding/tfidf"
	"keyrank/internal/extract"
	"keyrank/internal/ranker"
	"keyrank/internal/refine"
	"keyrank/internal/selector"
	"keyrank/internal/tokenizer"
)

// FromConfig assembles an Engine and its collaborators from application config.
func FromConfig(cfg *config.AppConfig, logger zerolog.Logger) (*Engine, error) {
	tok, err := newTokenizer(cfg.Tokenizer, logger)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Tokenizer: tok,
		Extractor: extract.Config{
			Mode:            domain.Mode(cfg.Extractor.Mode),
			MinUnitLength:   cfg.Extractor.MinUnitLength,
			MaxPhraseLength: cfg.Extractor.MaxPhraseLength,
			MaxCandidates:   cfg.Extractor.MaxCandidates,
			Blocklist:       cfg.Extractor.Blocklist,
		},
		Ranker: ranker.Config{
			Damping:       cfg.Ranker.DampingFactor,
			MaxIterations: cfg.Ranker.MaxIterations,
			Tolerance:     cfg.Ranker.Tolerance,
		},
		Signals:          cfg.Ranker.Signals,
		ClusterEnabled:   cfg.Cluster.Enabled,
		ClusterThreshold: cfg.Cluster.MergeThreshold,
		DedupThreshold:   cfg.Dedup.Threshold,
		DedupMetric:      cfg.Dedup.Metric,
		Fusion:           cfg.FusionConfig(),
		Selector: selector.Config{
			MinUnitLength: cfg.Extractor.MinUnitLength,
			MaxUnitLength: cfg.Extractor.MaxUnitLength,
			TopK:          cfg.Selector.TopK,
			MinScore:      cfg.Selector.MinScore,
		},
		Timeout:     time.Duration(cfg.Ranker.TimeoutMs) * time.Millisecond,
		Concurrency: cfg.Batch.Concurrency,
	}
	for _, w := range cfg.DomainWeights {
		opts.DomainWeights = append(opts.DomainWeights, ranker.Category{
			Name:     w.Name,
			Patterns: w.Patterns,
			Suffixes: w.Suffixes,
			Weight:   w.Weight,
		})
	}

	switch cfg.Embedder.Type {
	case "none", "":
	case "tfidf":
		opts.NewEmbedder = func() domain.Embedder { return tfidf.NewEmbedder(tok) }
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		cache := embedding.NewCache(client)
		opts.NewEmbedder = func() domain.Embedder { return cache }
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	if cfg.Refiner.Enabled {
		r, err := refine.NewOpenAI(refine.Config{
			BaseURL:         cfg.Refiner.BaseURL,
			APIKeyEnv:       cfg.Refiner.APIKeyEnv,
			Model:           cfg.Refiner.Model,
			Timeout:         time.Duration(cfg.Refiner.TimeoutSecs) * time.Second,
			BreakerFailures: cfg.Refiner.CircuitBreaker.Failures,
			BreakerTimeout:  time.Duration(cfg.Refiner.CircuitBreaker.TimeoutSecs) * time.Second,
		}, logger)
		if err != nil {
			// refinement is optional; run statistically
			logger.Warn().Err(err).Msg("refiner disabled")
		} else {
			opts.Refiner = r
		}
	}

	return New(opts, logger)
}

// newTokenizer builds the tokenizer chain. The morphological analyzer loads its
// dictionary on first use; a failed load leaves the chain on the naive tokenizer.
func newTokenizer(cfg config.TokenizerConfig, logger zerolog.Logger) (domain.Tokenizer, error) {
	var stop map[string]struct{}
	if len(cfg.Stopwords) > 0 {
		stop = tokenizer.StopwordSet(cfg.Stopwords)
	}
	naive := tokenizer.NewNaive(stop)
	kagome := tokenizer.NewLazy("kagome", func() (domain.Tokenizer, error) {
		k, err := tokenizer.NewKagome(stop)
		if err != nil {
			return nil, err
		}
		return k, nil
	})

	switch cfg.Type {
	case "naive":
		return naive, nil
	case "kagome":
		return tokenizer.NewChain(logger, kagome, naive), nil
	case "auto", "":
		return tokenizer.NewChain(logger, tokenizer.NewAuto(kagome, naive), naive), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s", cfg.Type)
	}
}
