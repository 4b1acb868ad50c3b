package embedding

import (
	"context"
	"sync"

	"keyrank/internal/domain"
)

// Cache memoizes a remote embedder by text. It is safe for concurrent use.
// Prepare is forwarded so corpus-dependent embedders stay correct; the cache
// is cleared whenever the corpus changes.
type Cache struct {
	inner domain.Embedder

	mu      sync.RWMutex
	vectors map[string][]float64
	hits    int
	misses  int
}

// NewCache wraps inner.
func NewCache(inner domain.Embedder) *Cache {
	return &Cache{inner: inner, vectors: make(map[string][]float64)}
}

func (c *Cache) Name() string { return c.inner.Name() }

func (c *Cache) Dimension() int { return c.inner.Dimension() }

func (c *Cache) Prepare(corpus []string) error {
	if err := c.inner.Prepare(corpus); err != nil {
		return err
	}
	if s, ok := c.inner.(interface{ Stateless() bool }); ok && s.Stateless() {
		return nil
	}
	c.Clear()
	return nil
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float64, error) {
	c.mu.RLock()
	v, ok := c.vectors[text]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.vectors[text] = v
	c.misses++
	c.mu.Unlock()
	return v, nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear drops every cached vector.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = make(map[string][]float64)
}
