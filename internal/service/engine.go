// Package service wires the ranking pipeline: extraction, similarity signals,
// iterative ranking, fusion, weighting, deduplication, selection and the
// optional refinement pass.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"keyrank/internal/cluster"
	"keyrank/internal/dedup"
	"keyrank/internal/domain"
	"keyrank/internal/embedding"
	"keyrank/internal/extract"
	"keyrank/internal/fusion"
	"keyrank/internal/graph"
	"keyrank/internal/metrics"
	"keyrank/internal/ranker"
	"keyrank/internal/refine"
	"keyrank/internal/selector"
	"keyrank/internal/similarity"
)

// Ranking signals.
const (
	SignalJaccard      = "jaccard"
	SignalCosine       = "cosine"
	SignalMultipartite = "multipartite"
)

// Options configures an Engine.
type Options struct {
	// Tokenizer is shared by every run and must be safe for concurrent use.
	Tokenizer domain.Tokenizer
	// NewEmbedder returns the embedder for one run. Nil disables vectors.
	NewEmbedder func() domain.Embedder
	// Refiner is tried before the passthrough stage. Nil skips it.
	Refiner domain.Refiner

	Extractor extract.Config
	Ranker    ranker.Config
	Signals   []string

	// Clustering assigns topics for the multipartite signal. When disabled every
	// candidate is its own topic.
	ClusterEnabled   bool
	ClusterThreshold float64

	DedupThreshold float64
	DedupMetric    string

	Fusion        fusion.Config
	Selector      selector.Config
	DomainWeights []ranker.Category

	// Timeout bounds the ranking part of a run. Zero means no bound.
	Timeout     time.Duration
	Concurrency int
}

// SignalReport describes how one signal was ranked.
type SignalReport struct {
	Name       string `json:"name"`
	Stage      string `json:"stage"`
	Edges      int    `json:"edges"`
	Iterations int    `json:"iterations"`
	Converged  bool   `json:"converged"`
}

// Report is the full outcome of one run.
type Report struct {
	RunID      string          `json:"run_id"`
	Mode       domain.Mode     `json:"mode"`
	Candidates int             `json:"candidates"`
	Topics     int             `json:"topics,omitempty"`
	Signals    []SignalReport  `json:"signals"`
	Refiner    string          `json:"refiner"`
	Results    []domain.Result `json:"results"`
	Duration   time.Duration   `json:"duration"`
}

// Engine runs the ranking pipeline. It is safe for concurrent use.
type Engine struct {
	opts      Options
	extractor *extract.Extractor
	pagerank  *ranker.PageRank
	clusterer *cluster.Agglomerative
	dedup     *dedup.Deduplicator
	fuser     *fusion.Fuser
	weights   *ranker.Weights
	logger    zerolog.Logger
}

// New validates opts and builds an Engine.
func New(opts Options, logger zerolog.Logger) (*Engine, error) {
	if len(opts.Signals) == 0 {
		opts.Signals = []string{SignalJaccard}
	}
	for _, s := range opts.Signals {
		switch s {
		case SignalJaccard, SignalCosine, SignalMultipartite:
		default:
			return nil, fmt.Errorf("unknown ranking signal: %s", s)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	dd, err := dedup.New(opts.DedupThreshold, opts.DedupMetric)
	if err != nil {
		return nil, err
	}
	fu, err := fusion.New(opts.Fusion)
	if err != nil {
		return nil, err
	}
	w, err := ranker.NewWeights(opts.DomainWeights)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		opts:      opts,
		extractor: extract.New(opts.Tokenizer, opts.Extractor, logger),
		pagerank:  ranker.NewPageRank(opts.Ranker, logger),
		clusterer: cluster.NewAgglomerative(opts.ClusterThreshold),
		dedup:     dd,
		fuser:     fu,
		weights:   w,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
	e.logger.Debug().
		Strs("signals", opts.Signals).
		Str("dedup_metric", dd.Metric()).
		Float64("dedup_threshold", dd.Threshold()).
		Bool("clustering", opts.ClusterEnabled).
		Float64("cluster_threshold", e.clusterer.Threshold()).
		Int("domain_categories", w.Len()).
		Msg("engine ready")
	return e, nil
}

// Extract ranks text and returns the selected results. The only error is the
// context's, when it is already done before any work starts.
func (e *Engine) Extract(ctx context.Context, text string, mode domain.Mode) ([]domain.Result, error) {
	rep, err := e.Run(ctx, text, mode)
	if err != nil {
		return nil, err
	}
	return rep.Results, nil
}

// ExtractBatch runs independent extractions with bounded concurrency. Results
// are in input order.
func (e *Engine) ExtractBatch(ctx context.Context, texts []string, mode domain.Mode) ([][]domain.Result, error) {
	out := make([][]domain.Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := e.Extract(gctx, text, mode)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fuse merges externally produced rankings with the configured method.
func (e *Engine) Fuse(lists ...[]domain.Ranked) []fusion.Fused {
	return e.fuser.Fuse(lists...)
}

// Run executes the pipeline and reports every step.
func (e *Engine) Run(ctx context.Context, text string, mode domain.Mode) (*Report, error) {
	if mode == "" {
		mode = e.extractor.Mode()
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordRun(string(mode), "error", 0)
		return nil, err
	}
	start := time.Now()
	rep := &Report{RunID: uuid.NewString(), Mode: mode, Results: []domain.Result{}, Signals: []SignalReport{}}
	log := e.logger.With().Str("run_id", rep.RunID).Str("mode", string(mode)).Logger()

	cands := e.extractor.ExtractMode(text, mode)
	rep.Candidates = len(cands)
	metrics.Candidates.Observe(float64(len(cands)))
	if len(cands) == 0 {
		rep.Duration = time.Since(start)
		metrics.RecordRun(string(mode), "empty", rep.Duration)
		return rep, nil
	}

	rctx, cancel := e.rankingContext(ctx)
	defer cancel()

	e.attachVectors(rctx, cands, log)

	lists := make([][]domain.Ranked, 0, len(e.opts.Signals))
	var single []float64
	for _, name := range e.opts.Signals {
		scores, sr, topics := e.rankSignal(rctx, name, cands, log)
		rep.Signals = append(rep.Signals, sr)
		if topics > rep.Topics {
			rep.Topics = topics
		}
		single = scores
		lists = append(lists, rankedList(scores, cands))
	}

	scores := single
	if len(lists) > 1 {
		scores = fusedScores(e.fuser.Fuse(lists...), cands)
	}
	scores = e.weights.Apply(scores, cands)

	order := ranker.Order(scores, cands)
	kept := e.dedup.Filter(order, cands)
	results := make([]domain.Result, 0, len(kept))
	for _, i := range kept {
		results = append(results, domain.Result{
			Text:      cands[i].Text,
			Score:     scores[i],
			Position:  cands[i].Position,
			Frequency: cands[i].Frequency,
		})
	}
	results = selector.Select(results, e.opts.Selector)

	rep.Results, rep.Refiner = e.refine(ctx, text, results, log)
	rep.Duration = time.Since(start)
	metrics.RecordRun(string(mode), "ok", rep.Duration)
	log.Debug().
		Int("candidates", rep.Candidates).
		Int("results", len(rep.Results)).
		Dur("duration", rep.Duration).
		Msg("run complete")
	return rep, nil
}

func (e *Engine) rankingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.Timeout > 0 {
		return context.WithTimeout(ctx, e.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) attachVectors(ctx context.Context, cands []domain.Candidate, log zerolog.Logger) {
	if e.opts.NewEmbedder == nil || !e.needsVectors() {
		return
	}
	emb := e.opts.NewEmbedder()
	if emb == nil {
		return
	}
	failed, err := embedding.Attach(ctx, emb, cands)
	if err != nil || failed > 0 {
		log.Warn().Err(err).
			Str("embedder", emb.Name()).
			Int("failed", failed).
			Msg("embedding incomplete, cosine falls back to token overlap")
	}
	if c, ok := emb.(*embedding.Cache); ok {
		hits, misses := c.Stats()
		log.Debug().Int("cached", c.Len()).Int("hits", hits).Int("misses", misses).Msg("embedding cache")
	}
}

func (e *Engine) needsVectors() bool {
	for _, s := range e.opts.Signals {
		if s == SignalCosine || s == SignalMultipartite {
			return true
		}
	}
	return false
}

func (e *Engine) baseSimilarity(signal string) domain.Similarity {
	if signal == SignalCosine || (signal == SignalMultipartite && e.opts.NewEmbedder != nil) {
		return similarity.Fallback{Primary: similarity.Cosine{}, Secondary: similarity.Jaccard{}}
	}
	return similarity.Jaccard{}
}

// rankSignal scores cands for one signal through the [graph, frequency] chain.
func (e *Engine) rankSignal(ctx context.Context, signal string, cands []domain.Candidate, log zerolog.Logger) ([]float64, SignalReport, int) {
	sr := SignalReport{Name: signal}
	sigLog := log.With().Str("signal", signal).Logger()

	sim := e.baseSimilarity(signal)
	m, failures := similarity.Build(cands, sim, sigLog)
	if failures > 0 {
		sigLog.Debug().Int("failures", failures).Msg("pairs scored 0")
	}

	topics := 0
	var g *graph.Graph
	if signal == SignalMultipartite {
		local := make([]domain.Candidate, len(cands))
		copy(local, cands)
		for i := range local {
			local[i].TopicID = i
		}
		if e.opts.ClusterEnabled {
			topics = len(e.clusterer.Cluster(local, m))
		} else {
			topics = len(local)
		}
		g = graph.BuildMultipartite(local, m)
	} else {
		g = graph.BuildPlain(m)
	}
	sr.Edges = g.EdgeCount()

	stages := []stage[[]float64]{
		{name: "graph", run: func(ctx context.Context) ([]float64, error) {
			res, err := e.pagerank.Rank(ctx, g)
			if err != nil {
				return nil, err
			}
			sr.Iterations, sr.Converged = res.Iterations, res.Converged
			metrics.RecordRanking(res.Iterations, res.Converged)
			return res.Scores, nil
		}},
		{name: "frequency", run: func(context.Context) ([]float64, error) {
			return ranker.FrequencyScores(cands), nil
		}},
	}
	scores, used, err := firstSuccess(ctx, sigLog, "ranking", stages)
	if err != nil {
		scores, used = make([]float64, len(cands)), "none"
	}
	if used == "frequency" {
		sigLog.Debug().
			Int("candidates", len(cands)).
			Float64("max_similarity", m.Max()).
			Msg("graph has no edges, ranked by frequency")
	}
	sr.Stage = used
	return scores, sr, topics
}

// refine runs the [llm, passthrough] chain.
func (e *Engine) refine(ctx context.Context, text string, results []domain.Result, log zerolog.Logger) ([]domain.Result, string) {
	if len(results) == 0 {
		return results, "none"
	}
	var stages []stage[[]domain.Result]
	for _, r := range []domain.Refiner{e.opts.Refiner, refine.Passthrough{}} {
		if r == nil {
			continue
		}
		stages = append(stages, stage[[]domain.Result]{
			name: r.Name(),
			run: func(ctx context.Context) ([]domain.Result, error) {
				return r.Refine(ctx, text, results)
			},
		})
	}
	out, used, err := firstSuccess(ctx, log, "refinement", stages)
	if err != nil {
		return results, "none"
	}
	return out, used
}

// rankedList orders cands by scores and keys the list by candidate key.
func rankedList(scores []float64, cands []domain.Candidate) []domain.Ranked {
	order := ranker.Order(scores, cands)
	out := make([]domain.Ranked, len(order))
	for r, i := range order {
		out[r] = domain.Ranked{ID: cands[i].Key, Score: scores[i]}
	}
	return out
}

// fusedScores maps fused entries back onto candidate indices.
func fusedScores(fused []fusion.Fused, cands []domain.Candidate) []float64 {
	byKey := make(map[string]float64, len(fused))
	for _, f := range fused {
		byKey[f.ID] = f.Score
	}
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = byKey[c.Key]
	}
	return out
}
