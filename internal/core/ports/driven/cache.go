package driven

import (
	"context"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

// EmbeddingCache is a persistent key→vector store keyed by
// (normalized text, model version) content hash. Concurrent reads and
// writes are permitted; a write race on the same key is last-write-wins
// since all writers compute the same deterministic vector for a key.
type EmbeddingCache interface {
	// Get retrieves a cached record by key.
	// Returns domain.ErrNotFound on miss.
	Get(ctx context.Context, key string) (*domain.CacheRecord, error)

	// Put stores a record under its key, overwriting any previous value.
	Put(ctx context.Context, rec domain.CacheRecord) error

	// Scan visits every record for the given model version. Used for
	// lexical fallback matching when the provider is unreachable.
	// Iteration stops early when fn returns false.
	Scan(ctx context.Context, modelVersion string, fn func(domain.CacheRecord) bool) error

	// Close releases resources.
	Close() error
}
