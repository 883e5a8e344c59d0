package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	p := NewJSONFile(filepath.Join(t.TempDir(), "catalog.json"))
	return Open(p, Settings{SiteName: "winzap", MaxFileSize: 1 << 20})
}

func testEntry(id, title string, uploadedAt time.Time) FileEntry {
	return FileEntry{
		ID:            id,
		Title:         title,
		Description:   "description of " + title,
		Category:      "general",
		CoverImage:    "/uploads/images/" + id + ".png",
		FileName:      title + ".zip",
		FilePath:      "/uploads/files/" + id + ".zip",
		FileSize:      "10 Bytes",
		FileSizeBytes: 10,
		FileType:      "application/zip",
		FileExtension: ".zip",
		UploadDate:    uploadedAt.Format("02/01/2006"),
		UploadedAt:    uploadedAt,
	}
}

func TestStore_AppendAndFind(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(testEntry("a1", "First", time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Find("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "First" {
		t.Errorf("expected title First, got %q", got.Title)
	}

	if s.StatsSnapshot().TotalFiles != 1 {
		t.Errorf("expected totalFiles 1, got %d", s.StatsSnapshot().TotalFiles)
	}

	if _, err := s.Find("missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestStore_Remove(t *testing.T) {
	t.Run("removes and returns the entry", func(t *testing.T) {
		s := newTestStore(t)
		s.Append(testEntry("a1", "First", time.Now()))
		s.Append(testEntry("a2", "Second", time.Now()))

		removed, err := s.Remove("a1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed.FilePath != "/uploads/files/a1.zip" {
			t.Errorf("unexpected removed entry: %+v", removed)
		}
		if s.StatsSnapshot().TotalFiles != 1 {
			t.Errorf("expected totalFiles 1 after remove, got %d", s.StatsSnapshot().TotalFiles)
		}
	})

	t.Run("unknown id does not mutate totals", func(t *testing.T) {
		s := newTestStore(t)
		s.Append(testEntry("a1", "First", time.Now()))

		if _, err := s.Remove("nope"); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
		if s.StatsSnapshot().TotalFiles != 1 {
			t.Errorf("totalFiles changed on failed remove")
		}
	})
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	old := testEntry("a1", "Retro Game Pack", base)
	old.Category = "games"
	mid := testEntry("a2", "Photo Editor", base.Add(time.Hour))
	mid.Category = "software"
	mid.Description = "edit GAME screenshots"
	newest := testEntry("a3", "Driver Bundle", base.Add(2*time.Hour))
	newest.Category = "software"

	for _, e := range []FileEntry{old, mid, newest} {
		if err := s.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	t.Run("newest first, no filter", func(t *testing.T) {
		entries, total, hasMore := s.List(Query{})
		if total != 3 || hasMore {
			t.Fatalf("expected total 3 hasMore false, got %d %v", total, hasMore)
		}
		if entries[0].ID != "a3" || entries[2].ID != "a1" {
			t.Errorf("expected newest-first order, got %s..%s", entries[0].ID, entries[2].ID)
		}
	})

	t.Run("search is case-insensitive across fields", func(t *testing.T) {
		tests := []struct {
			name   string
			search string
			want   int
		}{
			{"title match", "RETRO", 1},
			{"description match", "game", 2},
			{"category match", "SOFTware", 2},
			{"no match", "zzz", 0},
			{"empty search returns all", "", 3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, total, _ := s.List(Query{Search: tt.search})
				if total != tt.want {
					t.Errorf("search %q: expected %d, got %d", tt.search, tt.want, total)
				}
			})
		}
	})

	t.Run("category filter is exact", func(t *testing.T) {
		entries, total, _ := s.List(Query{Category: "software"})
		if total != 2 {
			t.Fatalf("expected 2 software entries, got %d", total)
		}
		for _, e := range entries {
			if e.Category != "software" {
				t.Errorf("unexpected category %q", e.Category)
			}
		}

		if _, total, _ := s.List(Query{Category: "all"}); total != 3 {
			t.Errorf("category 'all' should disable the filter, got %d", total)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		entries, total, hasMore := s.List(Query{Limit: 2})
		if len(entries) != 2 || total != 3 || !hasMore {
			t.Fatalf("page 1: got len=%d total=%d hasMore=%v", len(entries), total, hasMore)
		}

		entries, total, hasMore = s.List(Query{Limit: 2, Offset: 2})
		if len(entries) != 1 || total != 3 || hasMore {
			t.Fatalf("page 2: got len=%d total=%d hasMore=%v", len(entries), total, hasMore)
		}

		entries, _, hasMore = s.List(Query{Limit: 2, Offset: 10})
		if len(entries) != 0 || hasMore {
			t.Fatalf("past the end: got len=%d hasMore=%v", len(entries), hasMore)
		}
	})
}

func TestStore_Counters(t *testing.T) {
	s := newTestStore(t)
	s.Append(testEntry("a1", "First", time.Now()))

	if err := s.IncrementDownload("a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, _ := s.Find("a1")
	if entry.Downloads != 1 {
		t.Errorf("expected 1 download, got %d", entry.Downloads)
	}
	if got := s.StatsSnapshot().TotalDownloads; got != 1 {
		t.Errorf("expected totalDownloads 1, got %d", got)
	}

	if err := s.IncrementDownload("missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}

	if err := s.IncrementView("a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, _ = s.Find("a1")
	if entry.Views != 1 {
		t.Errorf("expected 1 view, got %d", entry.Views)
	}

	// unknown id is a tolerated no-op for views
	if err := s.IncrementView("missing"); err != nil {
		t.Errorf("expected nil for unknown view id, got %v", err)
	}
}

func TestStore_TouchVisit(t *testing.T) {
	t.Run("same day accumulates", func(t *testing.T) {
		s := newTestStore(t)
		s.TouchVisit()
		s.TouchVisit()
		if got := s.StatsSnapshot().VisitorsToday; got != 2 {
			t.Errorf("expected 2 visitors, got %d", got)
		}
	})

	t.Run("new day resets before counting", func(t *testing.T) {
		s := newTestStore(t)
		day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return day }

		s.TouchVisit()
		s.TouchVisit()

		day = day.Add(2 * time.Hour) // past midnight
		s.TouchVisit()

		if got := s.StatsSnapshot().VisitorsToday; got != 1 {
			t.Errorf("expected reset to 1 after date change, got %d", got)
		}
	})

	t.Run("stats read alone triggers the reset", func(t *testing.T) {
		s := newTestStore(t)
		day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return day }
		s.TouchVisit()

		day = day.Add(24 * time.Hour)
		if got := s.StatsSnapshot().VisitorsToday; got != 0 {
			t.Errorf("expected 0 after reset on read, got %d", got)
		}
	})
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)
	s.Append(testEntry("a1", "First", time.Now()))

	updated, err := s.Update("a1", func(e *FileEntry) {
		e.Title = "Renamed"
		e.Featured = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Renamed" || !updated.Featured {
		t.Errorf("update not applied: %+v", updated)
	}

	if _, err := s.Update("missing", func(e *FileEntry) {}); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestStore_Paths(t *testing.T) {
	s := newTestStore(t)
	s.Append(testEntry("a1", "First", time.Now()))

	paths := s.Paths()
	if !paths["/uploads/images/a1.png"] || !paths["/uploads/files/a1.zip"] {
		t.Errorf("expected both entry paths, got %v", paths)
	}
}
