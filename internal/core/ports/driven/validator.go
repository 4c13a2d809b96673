package driven

import "context"

// MatchValidator is the optional secondary validation pass: a
// higher-cost, higher-precision re-scoring of retrieval candidates.
// This is an optional service - when nil, scoring is similarity-only.
type MatchValidator interface {
	// Validate re-scores candidate descriptions against the query and
	// returns revised confidences (0-100) in candidate order, with an
	// explanation per candidate.
	Validate(ctx context.Context, queryText string, candidates []ValidationCandidate) ([]ValidationScore, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ValidationCandidate is one candidate submitted for re-scoring.
type ValidationCandidate struct {
	// Code is the candidate HTS code.
	Code string

	// Description is the hierarchical description of the code.
	Description string

	// ChapterContext is extra context about the chapter, when known.
	ChapterContext string
}

// ValidationScore is the validator's verdict on one candidate.
type ValidationScore struct {
	// Code echoes the candidate code.
	Code string

	// Confidence is the revised 0-100 score.
	Confidence float64

	// Explanation is the validator's reasoning, when provided.
	Explanation string
}
