package driven

import "context"

// VectorIndex provides similarity search over description embeddings.
// The in-process adapter performs exact cosine search; a managed vector
// service is substitutable behind the same interface.
type VectorIndex interface {
	// Add inserts a vector under the given HTS code.
	Add(ctx context.Context, code string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Code is the matched HTS code.
	Code string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
