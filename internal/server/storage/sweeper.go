package storage

import (
	"context"
	"log/slog"
	"time"
)

// referencer reports which stored paths are referenced by live catalog
// entries. Implemented by the catalog store.
type referencer interface {
	Paths() map[string]bool
}

// Sweeper periodically removes stored files that no catalog entry
// references. A crash between removing a record and deleting its files
// deliberately leaves orphan files rather than a dangling reference;
// the sweeper reclaims them once they are older than a grace period.
type Sweeper struct {
	catalog  referencer
	store    Store
	interval time.Duration
	grace    time.Duration
	done     chan struct{}
}

// NewSweeper creates a sweeper that runs every interval and only
// touches files older than grace, so in-flight uploads are never
// deleted out from under the upload handler.
func NewSweeper(catalog referencer, store Store, interval, grace time.Duration) *Sweeper {
	return &Sweeper{
		catalog:  catalog,
		store:    store,
		interval: interval,
		grace:    grace,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("orphan sweeper started", "interval", s.interval, "grace", s.grace)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-ctx.Done():
				slog.Info("orphan sweeper stopping")
				close(s.done)
				return
			}
		}
	}()
}

// Wait blocks until the sweeper has fully stopped.
func (s *Sweeper) Wait() {
	<-s.done
}

func (s *Sweeper) runSweep() {
	stored, err := s.store.ListStored()
	if err != nil {
		slog.Error("failed to list stored files", "error", err)
		return
	}

	live := s.catalog.Paths()
	cutoff := time.Now().Add(-s.grace)

	var removed, failed int
	for _, f := range stored {
		if live[f.URLPath] || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Remove(f.URLPath); err != nil {
			slog.Error("failed to remove orphan file", "path", f.URLPath, "error", err)
			failed++
			continue
		}
		removed++
		slog.Info("removed orphan file", "path", f.URLPath, "mod_time", f.ModTime)
	}

	if removed > 0 || failed > 0 {
		slog.Info("sweep cycle complete", "removed", removed, "failed", failed, "stored", len(stored))
	}
}
