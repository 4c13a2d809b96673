package jsonfile

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.RebuildNotifier = (*Watcher)(nil)

// DefaultSettleWindow is how long the watcher waits after the last file
// event before signalling a rebuild. Catalog refreshes rewrite many
// chapter files in quick succession; one rebuild should cover all of them.
const DefaultSettleWindow = 2 * time.Second

// Watcher signals when the catalog data directory changes on disk.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

// NewWatcher watches the source's data directory for chapter file
// changes. Events are coalesced: a burst of writes produces a single
// change signal once the directory has settled.
func NewWatcher(source *Source, settle time.Duration) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettleWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(source.Dir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", source.Dir(), err)
	}

	w := &Watcher{
		fsw:     fsw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop(settle)
	return w, nil
}

// Changes returns the channel signalled after the directory settles.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching and closes the change channel.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

// loop coalesces file events into change signals.
func (w *Watcher) loop(settle time.Duration) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("catalog file changed: %s (%s)", filepath.Base(event.Name), event.Op)
			if timer == nil {
				timer = time.NewTimer(settle)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(settle)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.changes <- struct{}{}:
			default:
				// A rebuild signal is already pending.
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("catalog watcher error: %v", err)
		}
	}
}

// isCatalogFile reports whether a path looks like a chapter export.
func isCatalogFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "htsdata") && strings.HasSuffix(name, ".json")
}
