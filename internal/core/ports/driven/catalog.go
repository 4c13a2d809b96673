package driven

import (
	"context"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

// CatalogSource supplies HTS entries at index build time. The engine
// only needs an iterable of entry-shaped records; where they come from
// (JSON chapter files, a database, an API) is the adapter's concern.
type CatalogSource interface {
	// Entries returns all catalog entries. Implementations return the
	// full dataset; the catalog index validates and embeds them.
	Entries(ctx context.Context) ([]domain.HTSEntry, error)
}

// RebuildNotifier reports dataset changes that should trigger a
// catalog rebuild. Optional; a nil notifier means manual rebuilds only.
type RebuildNotifier interface {
	// Changes returns a channel that receives an event whenever the
	// underlying dataset changes.
	Changes() <-chan struct{}

	// Close stops watching.
	Close() error
}
