// Package openai embeds text through an OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// EmbeddingsAPI is the subset of the go-openai client used here.
type EmbeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv goopenai.EmbeddingRequestConverter) (goopenai.EmbeddingResponse, error)
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	api        EmbeddingsAPI
	model      string
	maxRetries int

	mu        sync.RWMutex
	dimension int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	clientConfig := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return NewWithAPI(goopenai.NewClientWithConfig(clientConfig), cfg.Model), nil
}

// NewWithAPI wraps an existing API client.
func NewWithAPI(api EmbeddingsAPI, model string) *Client {
	if model == "" {
		model = string(goopenai.SmallEmbedding3)
	}
	return &Client{api: api, model: model, maxRetries: 5}
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding; the dimension is learned on
// the first successful call.
func (c *Client) Prepare(corpus []string) error { return nil }

// Stateless reports that vectors do not depend on the prepared corpus.
func (c *Client) Stateless() bool { return true }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text. Rate limits, server
// errors and transport failures are retried with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	req := goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(c.model),
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.api.CreateEmbeddings(ctx, req)
		if err == nil {
			if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
				return nil, errors.New("no embedding returned")
			}
			return c.toFloat64(resp.Data[0].Embedding), nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return nil, fmt.Errorf("openai embeddings failed: %w", lastErr)
}

func (c *Client) toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = len(out)
	}
	c.mu.Unlock()
	return out
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}

var baseRetryDelay = 200 * time.Millisecond

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := baseRetryDelay << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
