package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// Retry policy for transient provider failures.
const (
	maxEmbedAttempts = 3
	embedBaseDelay   = 500 * time.Millisecond

	// lexicalFallbackMin is the minimum token-set Jaccard similarity for
	// a cached entry to stand in for an unreachable provider.
	lexicalFallbackMin = 0.5
)

// CachedEmbedder wraps an EmbeddingService with a persistent
// content-addressed cache. Safe for concurrent use: a write race on the
// same key is harmless because every writer computes the same vector.
type CachedEmbedder struct {
	provider driven.EmbeddingService
	cache    driven.EmbeddingCache
	limiter  *rate.Limiter
}

// NewCachedEmbedder creates a cache-first embedder. The limiter bounds
// hosted-provider call rate; pass nil to disable throttling.
func NewCachedEmbedder(provider driven.EmbeddingService, cache driven.EmbeddingCache, limiter *rate.Limiter) *CachedEmbedder {
	return &CachedEmbedder{
		provider: provider,
		cache:    cache,
		limiter:  limiter,
	}
}

// ModelVersion exposes the underlying provider's model identifier.
func (e *CachedEmbedder) ModelVersion() string {
	return e.provider.ModelVersion()
}

// Embed returns the embedding for a normalized text, consulting the
// cache first. On a miss it calls the provider with bounded retries,
// stores the result and returns it. If the provider stays unreachable
// it falls back to the nearest cached entry by lexical similarity
// before surfacing domain.ErrProviderUnavailable.
func (e *CachedEmbedder) Embed(ctx context.Context, normalized string) (domain.EmbeddingVector, error) {
	key := domain.CacheKey(normalized, e.provider.ModelVersion())

	if rec, err := e.cache.Get(ctx, key); err == nil {
		logger.Debug("Embedding cache hit: %s", key[:16])
		return rec.Vector, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		// Cache trouble is not fatal; fall through to the provider.
		logger.Warn("Embedding cache read failed: %v", err)
	}

	values, err := e.embedWithRetry(ctx, normalized)
	if err != nil {
		if fallback, ok := e.lexicalFallback(ctx, normalized); ok {
			logger.Warn("Provider unreachable, using nearest cached embedding")
			return fallback, nil
		}
		return domain.EmbeddingVector{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	vec := domain.EmbeddingVector{
		Values:       values,
		TextHash:     domain.HashText(normalized),
		ModelVersion: e.provider.ModelVersion(),
	}
	rec := domain.CacheRecord{
		Key:            key,
		NormalizedText: normalized,
		Vector:         vec,
		LastAccess:     time.Now(),
	}
	if err := e.cache.Put(ctx, rec); err != nil {
		logger.Warn("Embedding cache write failed: %v", err)
	}
	return vec, nil
}

// embedWithRetry calls the provider with exponential backoff.
func (e *CachedEmbedder) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < maxEmbedAttempts; attempt++ {
		if attempt > 0 {
			delay := embedBaseDelay << (attempt - 1)
			logger.Debug("Embedding retry %d after %s", attempt, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		values, err := e.provider.Embed(ctx, text)
		if err == nil {
			return values, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// lexicalFallback scans the cache for the entry most lexically similar
// to the query (token-set Jaccard) and returns its vector when the
// overlap is strong enough. Degrades classification gracefully when the
// provider is down.
func (e *CachedEmbedder) lexicalFallback(ctx context.Context, normalized string) (domain.EmbeddingVector, bool) {
	queryTokens := tokenSet(normalized)
	if len(queryTokens) == 0 {
		return domain.EmbeddingVector{}, false
	}

	var best domain.CacheRecord
	bestScore := 0.0
	err := e.cache.Scan(ctx, e.provider.ModelVersion(), func(rec domain.CacheRecord) bool {
		if score := jaccard(queryTokens, tokenSet(rec.NormalizedText)); score > bestScore {
			best, bestScore = rec, score
		}
		return true
	})
	if err != nil || bestScore < lexicalFallbackMin {
		return domain.EmbeddingVector{}, false
	}
	logger.Debug("Lexical fallback match %.2f: %q", bestScore, best.NormalizedText)
	return best.Vector, true
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(text) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
