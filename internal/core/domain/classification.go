package domain

// MatchSource identifies how a candidate was produced.
type MatchSource string

const (
	// SourceSimilarity marks candidates from catalog similarity search.
	SourceSimilarity MatchSource = "similarity"

	// SourceExactFeedback marks candidates promoted by an exact feedback match.
	SourceExactFeedback MatchSource = "exact_feedback"

	// SourceSemanticFeedback marks candidates adjusted by semantic-neighbour feedback.
	SourceSemanticFeedback MatchSource = "semantic_feedback"
)

// CandidateResult is a single ranked classification candidate.
// Produced fresh per query; never persisted.
type CandidateResult struct {
	// HTSCode is the candidate tariff code.
	HTSCode string

	// Description is the hierarchical description of the code.
	Description string

	// RawSimilarity is the cosine similarity of query and code description (0-1).
	RawSimilarity float64

	// Confidence is the calibrated certainty score (0-100).
	Confidence float64

	// GeneralRate is the general duty rate string for the code.
	GeneralRate string

	// Units lists the units of quantity for the code.
	Units []string

	// Source records which stage produced or last adjusted the candidate.
	Source MatchSource

	// Explanation describes why the candidate was ranked where it is.
	Explanation string

	// LowConfidence is set when no candidate cleared the global minimum
	// threshold; the list is best-effort rather than empty.
	LowConfidence bool
}

// ClassifyOptions configures a classification request.
type ClassifyOptions struct {
	// TopK is the number of candidates to return (default 3).
	TopK int

	// LearnFromFeedback enables feedback-based re-ranking.
	LearnFromFeedback bool
}

// DefaultTopK is the number of candidates returned when TopK is unset.
const DefaultTopK = 3
