package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from EmbeddingCache which stores vectors, and
// from VectorIndex which searches them. EmbeddingService only generates.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelVersion identifies the model; cache entries are scoped by it,
	// so changing the model invalidates every cached vector at once.
	ModelVersion() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
