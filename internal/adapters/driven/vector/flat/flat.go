// Package flat provides an in-process exact-search VectorIndex.
// Brute-force cosine search is O(n) per query, which is comfortably
// fast for tariff-schedule scale (tens of thousands of lines); a
// managed vector service can replace it behind the same port.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine similarity index. Vectors are
// normalised on insert so search reduces to dot products.
type Index struct {
	mu        sync.RWMutex
	vectors   map[string][]float32
	dimension int
}

// New creates a flat cosine index for vectors of the given dimension.
func New(dimension int) *Index {
	return &Index{
		vectors:   make(map[string][]float32),
		dimension: dimension,
	}
}

// Add inserts a vector under the given code. A copy is stored to guard
// against external mutation; re-adding a code overwrites it.
func (x *Index) Add(_ context.Context, code string, embedding []float32) error {
	if len(embedding) != x.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", x.dimension, len(embedding))
	}

	v := make([]float32, len(embedding))
	copy(v, embedding)
	normalize(v)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors[code] = v
	return nil
}

// Search returns the k nearest neighbours by cosine similarity,
// most similar first.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", x.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	x.mu.RLock()
	defer x.mu.RUnlock()

	// Min-heap of the current top k; the root is the weakest hit and is
	// evicted when a stronger one appears.
	h := &hitHeap{}
	heap.Init(h)
	for code, vector := range x.vectors {
		sim := dot(q, vector)
		if h.Len() < k {
			heap.Push(h, driven.VectorHit{Code: code, Similarity: sim})
		} else if sim > (*h)[0].Similarity {
			heap.Pop(h)
			heap.Push(h, driven.VectorHit{Code: code, Similarity: sim})
		}
	}

	hits := make([]driven.VectorHit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(driven.VectorHit)
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// normalize scales a vector to unit length in place.
func normalize(v []float32) {
	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	if norm == 0 {
		return
	}
	inv := 1 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// dot computes the dot product of two unit vectors, clamped to [0,1].
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return math.Max(0, math.Min(1, sum))
}

// hitHeap is a min-heap ordered by similarity.
type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return h[i].Similarity < h[j].Similarity }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(v any)        { *h = append(*h, v.(driven.VectorHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
