package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Ensure FeedbackLog implements the interface.
var _ driven.FeedbackLog = (*FeedbackLog)(nil)

// FeedbackLog is a thread-safe in-memory append-only feedback log.
// Records are kept in append order, which is also timestamp order for
// a single process.
type FeedbackLog struct {
	mu      sync.RWMutex
	records []domain.FeedbackRecord
}

// NewFeedbackLog creates an empty in-memory feedback log.
func NewFeedbackLog() *FeedbackLog {
	return &FeedbackLog{}
}

// Append adds a record to the log.
func (l *FeedbackLog) Append(_ context.Context, rec domain.FeedbackRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// Latest returns the most recent record for the given normalized text.
func (l *FeedbackLog) Latest(_ context.Context, queryText string) (*domain.FeedbackRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].QueryText == queryText {
			rec := l.records[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Since returns all records with Timestamp at or after the cutoff,
// oldest first.
func (l *FeedbackLog) Since(_ context.Context, cutoff time.Time) ([]domain.FeedbackRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.FeedbackRecord
	for _, rec := range l.records {
		if !rec.Timestamp.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len returns the number of records in the log.
func (l *FeedbackLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Close releases resources.
func (l *FeedbackLog) Close() error {
	return nil
}
