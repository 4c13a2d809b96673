package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// CatalogHit is one catalog query result.
type CatalogHit struct {
	Entry      domain.HTSEntry
	Similarity float64
}

// CatalogIndex holds the immutable-per-build HTS catalog: the entry map
// plus a similarity index over description embeddings.
//
// Rebuilds use copy-then-swap: a new snapshot is constructed aside and
// published with a single atomic store, so in-flight queries against
// the previous snapshot complete without observing partial state.
// Readers take no locks; Build holds a single-writer mutex.
type CatalogIndex struct {
	source   driven.CatalogSource
	embedder *CachedEmbedder
	newIndex func(dimensions int) driven.VectorIndex

	buildMu  sync.Mutex
	snapshot atomic.Pointer[catalogSnapshot]
}

// catalogSnapshot is one complete generation of the catalog.
type catalogSnapshot struct {
	entries map[string]domain.HTSEntry
	index   driven.VectorIndex
}

// NewCatalogIndex creates an unbuilt catalog index. newIndex constructs
// the vector index backing each build; swapping in a managed-service
// constructor changes the backing without touching the classifier.
func NewCatalogIndex(source driven.CatalogSource, embedder *CachedEmbedder, newIndex func(int) driven.VectorIndex) *CatalogIndex {
	return &CatalogIndex{
		source:   source,
		embedder: embedder,
		newIndex: newIndex,
	}
}

// Ready reports whether a snapshot has been published.
func (c *CatalogIndex) Ready() bool {
	return c.snapshot.Load() != nil
}

// Build loads the dataset, embeds every description (through the cache)
// and publishes a fresh snapshot. Idempotent; safe to call while
// queries are in flight. Malformed entries fail the whole build: a
// partially built catalog silently produces wrong classifications.
func (c *CatalogIndex) Build(ctx context.Context) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	logger.Section("Catalog Build")
	entries, err := c.source.Entries(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: dataset is empty", domain.ErrDatasetInvalid)
	}

	snap := &catalogSnapshot{
		entries: make(map[string]domain.HTSEntry, len(entries)),
	}
	for _, e := range entries {
		if !e.Valid() {
			return fmt.Errorf("%w: entry %q has empty code or description", domain.ErrDatasetInvalid, e.Code)
		}
		snap.entries[e.Code] = e
	}
	logger.Info("Catalog: %d entries", len(snap.entries))

	for _, e := range entries {
		normalized, err := Normalize(e.Description)
		if err != nil {
			return fmt.Errorf("%w: entry %q: %v", domain.ErrDatasetInvalid, e.Code, err)
		}
		vec, err := c.embedder.Embed(ctx, normalized)
		if err != nil {
			return fmt.Errorf("embed entry %q: %w", e.Code, err)
		}
		if snap.index == nil {
			snap.index = c.newIndex(len(vec.Values))
		}
		if err := snap.index.Add(ctx, e.Code, vec.Values); err != nil {
			return fmt.Errorf("index entry %q: %w", e.Code, err)
		}
	}

	c.snapshot.Store(snap)
	logger.Info("Catalog index published: %d vectors", snap.index.Len())
	return nil
}

// Query returns the k entries most similar to the query vector, ordered
// by descending similarity. Ties break toward the shorter (more
// general) code, then lexically.
func (c *CatalogIndex) Query(ctx context.Context, vector []float32, k int) ([]CatalogHit, error) {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotBuilt
	}

	raw, err := snap.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]CatalogHit, 0, len(raw))
	for _, h := range raw {
		entry, ok := snap.entries[h.Code]
		if !ok {
			continue
		}
		hits = append(hits, CatalogHit{Entry: entry, Similarity: h.Similarity})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if len(hits[i].Entry.Code) != len(hits[j].Entry.Code) {
			return len(hits[i].Entry.Code) < len(hits[j].Entry.Code)
		}
		return hits[i].Entry.Code < hits[j].Entry.Code
	})
	return hits, nil
}

// Entry returns the catalog entry for a code, if present.
func (c *CatalogIndex) Entry(code string) (domain.HTSEntry, bool) {
	snap := c.snapshot.Load()
	if snap == nil {
		return domain.HTSEntry{}, false
	}
	e, ok := snap.entries[code]
	return e, ok
}

// FullDescription walks the parent chain and joins descriptions from
// the most general level down, e.g. "Horses: Purebred breeding animals".
func (c *CatalogIndex) FullDescription(code string) string {
	snap := c.snapshot.Load()
	if snap == nil {
		return ""
	}
	var parts []string
	seen := make(map[string]bool)
	for cur := code; cur != "" && !seen[cur]; {
		seen[cur] = true
		e, ok := snap.entries[cur]
		if !ok {
			break
		}
		parts = append(parts, e.Description)
		cur = e.ParentCode
	}
	// Collected child-first; reverse for root-first reading order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ": ")
}

// WatchRebuilds rebuilds the catalog whenever the notifier reports a
// dataset change, until ctx is cancelled. Rebuild failures keep the
// previous snapshot serving.
func (c *CatalogIndex) WatchRebuilds(ctx context.Context, notifier driven.RebuildNotifier) {
	if notifier == nil {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notifier.Changes():
				if !ok {
					return
				}
				logger.Info("Dataset changed, rebuilding catalog")
				if err := c.Build(ctx); err != nil {
					logger.Warn("Catalog rebuild failed, keeping previous index: %v", err)
				}
			}
		}
	}()
}
