package domain

import "time"

// FeedbackRecord is one user correction of a classification.
// Records are append-only: never mutated or deleted, only aggregated.
type FeedbackRecord struct {
	// ID is a unique record identifier.
	ID string

	// QueryText is the normalized query the correction applies to.
	QueryText string

	// QueryEmbedding is the embedding of QueryText at record time.
	// Used for semantic-neighbour lookups.
	QueryEmbedding []float32

	// PredictedCode is the code the classifier originally returned.
	PredictedCode string

	// CorrectedCode is the code the user confirmed as correct.
	CorrectedCode string

	// Timestamp is when the correction was recorded.
	Timestamp time.Time
}

// IsCorrection reports whether the record changes the prediction.
// Confirmations (predicted == corrected) still count toward aggregates
// but carry no re-ranking penalty.
func (r FeedbackRecord) IsCorrection() bool {
	return r.PredictedCode != r.CorrectedCode
}

// CorrectionSeverity classifies how far a correction moved the code.
type CorrectionSeverity string

const (
	SeverityChapter    CorrectionSeverity = "chapter"    // different 2-digit chapter
	SeverityHeading    CorrectionSeverity = "heading"    // same chapter, different heading
	SeveritySubheading CorrectionSeverity = "subheading" // same heading
	SeverityNone       CorrectionSeverity = "none"       // confirmation, no change
)

// Severity returns how drastic the correction was.
func (r FeedbackRecord) Severity() CorrectionSeverity {
	switch {
	case !r.IsCorrection():
		return SeverityNone
	case CodeChapter(r.PredictedCode) != CodeChapter(r.CorrectedCode):
		return SeverityChapter
	case CodeHeading(r.PredictedCode) != CodeHeading(r.CorrectedCode):
		return SeverityHeading
	default:
		return SeveritySubheading
	}
}

// CorrectionPattern is a recurring predicted→corrected heading pair.
type CorrectionPattern struct {
	// FromHeading is the 4-digit heading that was predicted.
	FromHeading string

	// ToHeading is the 4-digit heading it was corrected to.
	ToHeading string

	// Count is how often the pattern occurred in the analysis window.
	Count int
}

// LearningInsight summarises feedback history. It is derived entirely
// from FeedbackRecord history and always recomputable; cached only for
// performance, never persisted as source of truth.
type LearningInsight struct {
	// TotalRecords is the number of feedback records in the window.
	TotalRecords int

	// TotalCorrections is the number of records that changed the prediction.
	TotalCorrections int

	// CorrectionRate is TotalCorrections / TotalRecords (0 when no records).
	CorrectionRate float64

	// CorrectionRateByChapter maps 2-digit chapter to its correction rate.
	CorrectionRateByChapter map[string]float64

	// TopPatterns lists the most frequent heading-level correction pairs.
	TopPatterns []CorrectionPattern

	// ThresholdDrift maps chapters whose correction rate suggests their
	// floor threshold should move, to the suggested delta in confidence
	// points (positive tightens, negative relaxes).
	ThresholdDrift map[string]float64

	// GeneratedAt is when the insight was computed.
	GeneratedAt time.Time
}
