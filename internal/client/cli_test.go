package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestParseUploadArgs(t *testing.T) {
	cover := writeTempFile(t, "cover.png")
	payload := writeTempFile(t, "game.zip")

	t.Run("valid arguments", func(t *testing.T) {
		args, err := ParseUploadArgs("  Demo  ", "test file", "games", cover, payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if args.Title != "Demo" {
			t.Errorf("title must be trimmed, got %q", args.Title)
		}
		if args.CoverPath != cover || args.FilePath != payload {
			t.Errorf("paths not carried through: %+v", args)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name                     string
			title, desc, cover, file string
		}{
			{"empty title", "  ", "desc", cover, payload},
			{"empty description", "Title", "", cover, payload},
			{"missing cover path", "Title", "desc", "", payload},
			{"missing file path", "Title", "desc", cover, ""},
			{"nonexistent cover", "Title", "desc", "/no/such/cover.png", payload},
			{"nonexistent file", "Title", "desc", cover, "/no/such/file.zip"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseUploadArgs(tt.title, tt.desc, "", tt.cover, tt.file)
				if err == nil {
					t.Fatal("expected an error")
				}
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			})
		}
	})

	t.Run("directory is rejected", func(t *testing.T) {
		_, err := ParseUploadArgs("Title", "desc", "", t.TempDir(), payload)
		if err == nil {
			t.Fatal("expected an error for directory cover")
		}
	})
}
