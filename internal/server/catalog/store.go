package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrEntryNotFound = errors.New("file entry not found")
)

// dateFormat is the calendar-day granularity format used for the daily
// visitor reset.
const dateFormat = "Mon Jan 02 2006"

// Query filters and paginates a catalog listing.
type Query struct {
	Search   string // case-insensitive substring over title/description/category
	Category string // exact match; empty or "all" disables the filter
	Limit    int    // default 50
	Offset   int    // default 0
}

// Store is the single source of truth for file entries and stats.
// All mutations serialize around one lock: mutate in-memory state,
// then overwrite the persisted document. A failed persist is surfaced
// to the caller but the in-memory state stays authoritative, so the
// process keeps serving until the next successful save.
type Store struct {
	mu       sync.Mutex
	files    []FileEntry
	stats    Stats
	settings Settings
	persist  Persister

	now func() time.Time // swappable in tests for the daily reset
}

// Open loads the persisted document through p. An absent or malformed
// document never fails startup: the store begins empty with zeroed
// stats.
func Open(p Persister, settings Settings) *Store {
	s := &Store{
		persist:  p,
		settings: settings,
		now:      time.Now,
	}

	snap, err := p.Load()
	switch {
	case err == nil:
		s.files = snap.Files
		s.stats = snap.Stats
		if snap.Settings.SiteName != "" {
			s.settings.SiteName = snap.Settings.SiteName
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Info("no catalog document found, starting empty")
	default:
		slog.Error("failed to load catalog document, starting empty", "error", err)
	}

	// TotalFiles is derived state; recompute in case the document was
	// edited by hand.
	s.stats.TotalFiles = len(s.files)
	if s.stats.LastResetDate == "" {
		s.stats.LastResetDate = s.now().Format(dateFormat)
	}
	return s
}

// Append adds a new entry and persists.
func (s *Store) Append(entry FileEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = append(s.files, entry)
	s.stats.TotalFiles = len(s.files)
	return s.persistLocked()
}

// Remove deletes the entry with the given id and returns it so the
// caller can delete its backing files.
func (s *Store) Remove(id string) (FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.stats.TotalFiles = len(s.files)
			if err := s.persistLocked(); err != nil {
				return f, err
			}
			return f, nil
		}
	}
	return FileEntry{}, ErrEntryNotFound
}

// Find returns a copy of the entry with the given id.
func (s *Store) Find(id string) (FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.files {
		if f.ID == id {
			return f, nil
		}
	}
	return FileEntry{}, ErrEntryNotFound
}

// Update applies mutate to the entry with the given id and persists.
func (s *Store) Update(id string, mutate func(*FileEntry)) (FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.files {
		if s.files[i].ID == id {
			mutate(&s.files[i])
			if err := s.persistLocked(); err != nil {
				return s.files[i], err
			}
			return s.files[i], nil
		}
	}
	return FileEntry{}, ErrEntryNotFound
}

// List returns entries matching q, newest-first, plus the total
// filtered count and whether more pages follow.
func (s *Store) List(q Query) (entries []FileEntry, total int, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]FileEntry, 0, len(s.files))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, f := range s.files {
		if search != "" {
			if !strings.Contains(strings.ToLower(f.Title), search) &&
				!strings.Contains(strings.ToLower(f.Description), search) &&
				!strings.Contains(strings.ToLower(f.Category), search) {
				continue
			}
		}
		if q.Category != "" && q.Category != "all" && f.Category != q.Category {
			continue
		}
		matched = append(matched, f)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	total = len(matched)
	if offset >= total {
		return []FileEntry{}, total, false
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, end < total
}

// IncrementDownload bumps the per-entry and global download counters.
func (s *Store) IncrementDownload(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.files {
		if s.files[i].ID == id {
			s.files[i].Downloads++
			s.stats.TotalDownloads++
			return s.persistLocked()
		}
	}
	return ErrEntryNotFound
}

// IncrementView bumps the per-entry view counter. An unknown id is a
// tolerated no-op.
func (s *Store) IncrementView(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.files {
		if s.files[i].ID == id {
			s.files[i].Views++
			return s.persistLocked()
		}
	}
	return nil
}

// TouchVisit registers one visit, resetting the daily counter first
// when the calendar day has changed.
func (s *Store) TouchVisit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetVisitorsLocked()
	s.stats.VisitorsToday++
	return s.persistLocked()
}

// StatsSnapshot applies the daily-reset check and returns the current
// counters.
func (s *Store) StatsSnapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resetVisitorsLocked() {
		if err := s.persistLocked(); err != nil {
			slog.Error("failed to persist visitor reset", "error", err)
		}
	}
	return s.stats
}

// Len reports the number of catalog entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Paths returns the cover and payload paths of every entry. The
// storage sweeper uses it to tell live files from orphans.
func (s *Store) Paths() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make(map[string]bool, 2*len(s.files))
	for _, f := range s.files {
		paths[f.CoverImage] = true
		paths[f.FilePath] = true
	}
	return paths
}

// Flush persists the current snapshot. Used by the periodic flusher
// and at shutdown.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) resetVisitorsLocked() bool {
	today := s.now().Format(dateFormat)
	if s.stats.LastResetDate == today {
		return false
	}
	s.stats.VisitorsToday = 0
	s.stats.LastResetDate = today
	return true
}

func (s *Store) persistLocked() error {
	snap := &Snapshot{
		Files:    s.files,
		Stats:    s.stats,
		Settings: s.settings,
	}
	if snap.Files == nil {
		snap.Files = []FileEntry{}
	}
	if err := s.persist.Save(snap); err != nil {
		slog.Error("failed to persist catalog document", "error", err)
		return fmt.Errorf("failed to persist catalog: %w", err)
	}
	return nil
}
