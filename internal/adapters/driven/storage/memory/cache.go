// Package memory provides in-memory implementations of the storage
// ports. They are used in tests and as a fallback when no cache path
// is configured; nothing survives process restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is a thread-safe in-memory embedding cache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	records map[string]domain.CacheRecord
}

// NewEmbeddingCache creates an empty in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		records: make(map[string]domain.CacheRecord),
	}
}

// Get retrieves a cached record by key.
func (c *EmbeddingCache) Get(_ context.Context, key string) (*domain.CacheRecord, error) {
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	rec.LastAccess = time.Now()
	c.mu.Lock()
	c.records[key] = rec
	c.mu.Unlock()

	out := rec
	return &out, nil
}

// Put stores a record under its key, overwriting any previous value.
func (c *EmbeddingCache) Put(_ context.Context, rec domain.CacheRecord) error {
	if rec.LastAccess.IsZero() {
		rec.LastAccess = time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[rec.Key] = rec
	return nil
}

// Scan visits every record for the given model version.
func (c *EmbeddingCache) Scan(ctx context.Context, modelVersion string, fn func(domain.CacheRecord) bool) error {
	c.mu.RLock()
	snapshot := make([]domain.CacheRecord, 0, len(c.records))
	for key, rec := range c.records {
		if strings.HasPrefix(key, modelVersion+":") {
			snapshot = append(snapshot, rec)
		}
	}
	c.mu.RUnlock()

	for _, rec := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
	return nil
}

// Len returns the number of cached records.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Close releases resources.
func (c *EmbeddingCache) Close() error {
	return nil
}
