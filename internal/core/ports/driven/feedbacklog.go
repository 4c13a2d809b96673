package driven

import (
	"context"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

// FeedbackLog persists correction records. The log is append-only:
// writers never block readers, and readers may see a slightly stale
// snapshot (no read-after-write guarantee across concurrent requests).
type FeedbackLog interface {
	// Append adds a record to the log.
	Append(ctx context.Context, rec domain.FeedbackRecord) error

	// Latest returns the most recent record whose QueryText equals the
	// given normalized text. Returns domain.ErrNotFound when none exists.
	Latest(ctx context.Context, queryText string) (*domain.FeedbackRecord, error)

	// Since returns all records with Timestamp at or after the cutoff,
	// oldest first.
	Since(ctx context.Context, cutoff time.Time) ([]domain.FeedbackRecord, error)

	// Close releases resources.
	Close() error
}
