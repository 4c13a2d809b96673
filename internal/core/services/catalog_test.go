package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/memory"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/vector/flat"
	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

func newTestCatalog(t *testing.T, entries []domain.HTSEntry) (*CatalogIndex, *CachedEmbedder) {
	t.Helper()
	embedder := NewCachedEmbedder(&mockEmbeddingService{}, memory.NewEmbeddingCache(), nil)
	catalog := NewCatalogIndex(&mockCatalogSource{entries: entries}, embedder, func(dim int) driven.VectorIndex {
		return flat.New(dim)
	})
	return catalog, embedder
}

func TestCatalogIndex_QueryBeforeBuild(t *testing.T) {
	catalog, _ := newTestCatalog(t, testCatalog)
	_, err := catalog.Query(context.Background(), hashEmbed("horses"), 3)
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
	assert.False(t, catalog.Ready())
}

func TestCatalogIndex_BuildAndQuery(t *testing.T) {
	catalog, embedder := newTestCatalog(t, testCatalog)
	ctx := context.Background()

	require.NoError(t, catalog.Build(ctx))
	assert.True(t, catalog.Ready())

	// Query with a description the catalog itself contains: that entry
	// must rank first.
	normalized, err := Normalize("Horses live purebred breeding animals")
	require.NoError(t, err)
	vec, err := embedder.Embed(ctx, normalized)
	require.NoError(t, err)

	hits, err := catalog.Query(ctx, vec.Values, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "0101.21", hits[0].Entry.Code)

	// Descending similarity order.
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
}

func TestCatalogIndex_TieBreakPrefersShorterCode(t *testing.T) {
	entries := []domain.HTSEntry{
		{Code: "8516", Description: "Electric heating apparatus"},
		{Code: "8516.71", Description: "Electric heating apparatus"},
	}
	catalog, embedder := newTestCatalog(t, entries)
	ctx := context.Background()
	require.NoError(t, catalog.Build(ctx))

	vec, err := embedder.Embed(ctx, "electric heating apparatus")
	require.NoError(t, err)
	hits, err := catalog.Query(ctx, vec.Values, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.InDelta(t, hits[0].Similarity, hits[1].Similarity, 1e-9)
	assert.Equal(t, "8516", hits[0].Entry.Code, "tie breaks toward the more general code")
}

func TestCatalogIndex_BuildRejectsMalformedEntries(t *testing.T) {
	bad := append([]domain.HTSEntry{}, testCatalog...)
	bad = append(bad, domain.HTSEntry{Code: "9999.99", Description: "   "})

	catalog, _ := newTestCatalog(t, bad)
	err := catalog.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrDatasetInvalid)
	assert.False(t, catalog.Ready(), "a failed build must not publish a partial index")
}

func TestCatalogIndex_BuildRejectsEmptyDataset(t *testing.T) {
	catalog, _ := newTestCatalog(t, nil)
	err := catalog.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrDatasetInvalid)
}

func TestCatalogIndex_RebuildSwapsAtomically(t *testing.T) {
	source := &mockCatalogSource{entries: testCatalog}
	embedder := NewCachedEmbedder(&mockEmbeddingService{}, memory.NewEmbeddingCache(), nil)
	catalog := NewCatalogIndex(source, embedder, func(dim int) driven.VectorIndex {
		return flat.New(dim)
	})
	ctx := context.Background()
	require.NoError(t, catalog.Build(ctx))

	_, ok := catalog.Entry("6109.10")
	require.True(t, ok)

	// Swap the dataset and rebuild: new entries visible, removed ones gone.
	source.entries = []domain.HTSEntry{
		{Code: "7610.10", Description: "Aluminum doors windows and their frames"},
	}
	require.NoError(t, catalog.Build(ctx))

	_, ok = catalog.Entry("7610.10")
	assert.True(t, ok)
	_, ok = catalog.Entry("6109.10")
	assert.False(t, ok)
}

func TestCatalogIndex_FailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	source := &mockCatalogSource{entries: testCatalog}
	embedder := NewCachedEmbedder(&mockEmbeddingService{}, memory.NewEmbeddingCache(), nil)
	catalog := NewCatalogIndex(source, embedder, func(dim int) driven.VectorIndex {
		return flat.New(dim)
	})
	ctx := context.Background()
	require.NoError(t, catalog.Build(ctx))

	source.entries = []domain.HTSEntry{{Code: "", Description: "orphan"}}
	assert.Error(t, catalog.Build(ctx))

	// The previous generation still serves.
	_, ok := catalog.Entry("0101.21")
	assert.True(t, ok)
}

func TestCatalogIndex_FullDescription(t *testing.T) {
	catalog, _ := newTestCatalog(t, testCatalog)
	require.NoError(t, catalog.Build(context.Background()))

	desc := catalog.FullDescription("0101.21")
	assert.Equal(t, "Horses asses mules and hinnies live: Horses live purebred breeding animals", desc)

	// Entries without a parent read as their own description.
	assert.Equal(t, "T-shirts singlets and tank tops knitted of cotton", catalog.FullDescription("6109.10"))

	// Unknown codes yield an empty string.
	assert.Equal(t, "", catalog.FullDescription("9999.99"))
}
