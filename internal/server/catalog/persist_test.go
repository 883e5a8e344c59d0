package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestJSONFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	p := NewJSONFile(path)

	uploaded := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	snap := &Snapshot{
		Files: []FileEntry{testEntry("a1", "First", uploaded)},
		Stats: Stats{
			TotalFiles:     1,
			TotalDownloads: 7,
			VisitorsToday:  3,
			LastResetDate:  uploaded.Format(dateFormat),
		},
		Settings: Settings{SiteName: "winzap", MaxFileSize: 500 * 1024 * 1024},
	}

	if err := p.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := p.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(snap, loaded) {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", snap, loaded)
	}
}

func TestJSONFile_LoadMissing(t *testing.T) {
	p := NewJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := p.Load(); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestJSONFile_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "deep", "catalog.json")
	p := NewJSONFile(path)

	if err := p.Save(&Snapshot{Files: []FileEntry{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("document not written: %v", err)
	}
}

func TestOpen_Recovery(t *testing.T) {
	t.Run("corrupt document starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		os.WriteFile(path, []byte("{not json"), 0644)

		s := Open(NewJSONFile(path), Settings{})
		if s.Len() != 0 {
			t.Errorf("expected empty catalog, got %d entries", s.Len())
		}
	})

	t.Run("reload restores catalog and stats", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		p := NewJSONFile(path)

		s := Open(p, Settings{SiteName: "winzap"})
		s.Append(testEntry("a1", "First", time.Now().UTC()))
		s.IncrementDownload("a1")
		s.TouchVisit()

		reloaded := Open(NewJSONFile(path), Settings{SiteName: "winzap"})
		if reloaded.Len() != 1 {
			t.Fatalf("expected 1 entry after reload, got %d", reloaded.Len())
		}
		entry, err := reloaded.Find("a1")
		if err != nil {
			t.Fatalf("find after reload: %v", err)
		}
		if entry.Downloads != 1 {
			t.Errorf("expected downloads 1 after reload, got %d", entry.Downloads)
		}
		stats := reloaded.StatsSnapshot()
		if stats.TotalDownloads != 1 || stats.VisitorsToday != 1 {
			t.Errorf("stats not restored: %+v", stats)
		}
	})
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{10, "10 Bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.bytes); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
