package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or empty input.
	// Classification requests carrying it are rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates the embedding provider is unreachable.
	// Callers may retry with backoff or fall back to cached vectors.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrIndexNotBuilt indicates the catalog index was queried before Build.
	// Fatal to the request, not to the process.
	ErrIndexNotBuilt = errors.New("catalog index not built")

	// ErrFeedbackStore indicates a feedback log read or write failed.
	// Never fatal to classification; the classifier degrades to base output.
	ErrFeedbackStore = errors.New("feedback store unavailable")

	// ErrValidatorUnavailable indicates the secondary validation provider
	// is not configured or unreachable. Scoring degrades to similarity-only.
	ErrValidatorUnavailable = errors.New("validation provider unavailable")

	// ErrDatasetInvalid indicates malformed catalog entries.
	// A partial catalog silently misclassifies, so the whole build fails.
	ErrDatasetInvalid = errors.New("invalid catalog dataset")
)
