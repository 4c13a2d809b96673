package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_ScopedByModelVersion(t *testing.T) {
	k1 := CacheKey("leather wallet", "ollama/nomic-embed-text")
	k2 := CacheKey("leather wallet", "openai/text-embedding-3-small")

	assert.NotEqual(t, k1, k2, "changing the model must invalidate cached keys")
	assert.Contains(t, k1, "ollama/nomic-embed-text:")
}

func TestCacheKey_Deterministic(t *testing.T) {
	assert.Equal(t,
		CacheKey("cotton t-shirt", "m1"),
		CacheKey("cotton t-shirt", "m1"))
	assert.NotEqual(t,
		CacheKey("cotton t-shirt", "m1"),
		CacheKey("cotton t shirt", "m1"))
}
