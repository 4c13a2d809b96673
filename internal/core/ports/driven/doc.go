// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CatalogSource: supplies HTS entries at index build time
//   - VectorIndex: similarity search over description embeddings
//   - EmbeddingService: generates vector embeddings
//   - EmbeddingCache: persistent content-addressed vector cache
//   - FeedbackLog: append-only correction history
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - MatchValidator: secondary higher-precision re-scoring pass.
//     Without it, scoring is similarity-only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
