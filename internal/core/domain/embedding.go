package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EmbeddingVector is a fixed-length vector with provenance. A given
// normalized text always maps to the same vector for the lifetime of a
// model version; the provenance fields make that checkable.
type EmbeddingVector struct {
	// Values is the embedding itself.
	Values []float32

	// TextHash is the sha256 of the normalized source text.
	TextHash string

	// ModelVersion identifies the embedding model that produced Values.
	ModelVersion string
}

// CacheRecord is one persisted embedding cache entry, keyed by
// (normalized text hash, model version).
type CacheRecord struct {
	// Key is the content-addressed cache key, see CacheKey.
	Key string

	// NormalizedText is kept alongside the vector so that lexical
	// fallback matching can scan cached texts on provider outage.
	NormalizedText string

	// Vector is the cached embedding.
	Vector EmbeddingVector

	// LastAccess is updated on reads; used for cache reporting only.
	LastAccess time.Time
}

// HashText returns the canonical content hash of a normalized text.
func HashText(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// CacheKey builds the content-addressed key for a normalized text under
// a model version. Bumping the model version invalidates every prior
// entry without scanning or deleting them.
func CacheKey(normalized, modelVersion string) string {
	return modelVersion + ":" + HashText(normalized)
}
