// Package driving defines the interfaces through which callers drive the
// engine (primary/inbound ports). The CLI and any embedding application
// depend on these, not on concrete services.
package driving

import (
	"context"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

// Classifier is the caller-facing classification API.
type Classifier interface {
	// Classify returns ranked candidates for a product description,
	// ordered by non-increasing confidence, length <= TopK and never
	// empty while the catalog has entries.
	Classify(ctx context.Context, description string, opts domain.ClassifyOptions) ([]domain.CandidateResult, error)

	// AddFeedback records a user correction. This is the only mutation
	// path; Classify itself never mutates state.
	AddFeedback(ctx context.Context, description, predictedCode, correctedCode string) error

	// Insights returns aggregate learning insights derived from the
	// feedback history.
	Insights(ctx context.Context) (domain.LearningInsight, error)
}

// Indexer controls the catalog index lifecycle.
type Indexer interface {
	// Build (re)builds the catalog index. Idempotent; concurrent
	// queries observe either the previous or the new complete index.
	Build(ctx context.Context) error

	// Ready reports whether the index has been built.
	Ready() bool
}
