package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"winzap/internal/server/catalog"
	"winzap/internal/server/config"
	"winzap/internal/server/storage"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound         = errors.New("file not found")
	ErrUnauthorized     = errors.New("invalid admin password")
	ErrValidation       = errors.New("invalid upload")
	ErrUnsupportedMedia = errors.New("unsupported cover image type")
	ErrTooLarge         = errors.New("file exceeds maximum allowed size")
)

// allowedImageExtensions is the cover-image allow-list. Payload files
// carry no type restriction.
var allowedImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true, "image/jpg": true, "image/png": true,
	"image/gif": true, "image/webp": true,
}

// Notifier receives catalog-change events for live clients.
type Notifier interface {
	Publish(event, fileID string)
}

// UploadRequest carries one multipart upload: metadata plus the cover
// image and payload file parts.
type UploadRequest struct {
	Title       string
	Description string
	Category    string

	CoverName string
	CoverType string
	CoverSize int64
	Cover     io.Reader

	FileName string
	FileType string
	FileSize int64
	File     io.Reader
}

// UpdatePatch is an admin edit; nil fields are left untouched.
type UpdatePatch struct {
	Title       *string
	Description *string
	Category    *string
	Featured    *bool
}

// CatalogService contains the business logic for the file catalog.
type CatalogService struct {
	store  *catalog.Store
	files  storage.Store
	cfg    *config.Config
	events Notifier
}

// NewCatalogService creates the service. events may be nil.
func NewCatalogService(store *catalog.Store, files storage.Store, cfg *config.Config, events Notifier) *CatalogService {
	return &CatalogService{
		store:  store,
		files:  files,
		cfg:    cfg,
		events: events,
	}
}

// Upload validates and ingests one (cover, payload, metadata) triple.
// Both files are fully written to storage before the catalog entry
// referencing them is appended.
func (s *CatalogService) Upload(ctx context.Context, req UploadRequest) (*catalog.FileEntry, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if req.Cover == nil || req.File == nil {
		return nil, fmt.Errorf("%w: cover image and file are required", ErrValidation)
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}

	coverExt := strings.ToLower(filepath.Ext(req.CoverName))
	if !allowedImageExtensions[coverExt] || !allowedImageTypes[strings.ToLower(req.CoverType)] {
		return nil, fmt.Errorf("%w: got %s (%s), want JPEG, PNG, GIF or WebP",
			ErrUnsupportedMedia, coverExt, req.CoverType)
	}

	if req.CoverSize > s.cfg.MaxFileSize || req.FileSize > s.cfg.MaxFileSize {
		return nil, ErrTooLarge
	}

	now := time.Now().UTC()

	coverStored, err := storedName(req.CoverName, now)
	if err != nil {
		return nil, err
	}
	fileStored, err := storedName(req.FileName, now)
	if err != nil {
		return nil, err
	}

	coverPath, _, err := s.files.SaveImage(coverStored, req.Cover)
	if err != nil {
		return nil, fmt.Errorf("failed to store cover image: %w", err)
	}

	filePath, written, err := s.files.SaveFile(fileStored, req.File)
	if err != nil {
		// The entry was never appended; reclaim the cover.
		if rmErr := s.files.Remove(coverPath); rmErr != nil {
			slog.Error("failed to remove cover after payload write failure", "path", coverPath, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to store payload file: %w", err)
	}

	size := req.FileSize
	if size == 0 {
		size = written
	}

	entry := catalog.FileEntry{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   description,
		Category:      category,
		CoverImage:    coverPath,
		FileName:      req.FileName,
		FilePath:      filePath,
		FileSize:      catalog.HumanSize(size),
		FileSizeBytes: size,
		FileType:      req.FileType,
		FileExtension: strings.ToLower(filepath.Ext(req.FileName)),
		UploadDate:    now.Format("02/01/2006"),
		UploadedAt:    now,
	}

	if err := s.store.Append(entry); err != nil {
		// The entry is live in memory despite the failed persist, so
		// the stored files stay referenced. Surface the fault only.
		return nil, err
	}

	slog.Info("file uploaded",
		"id", entry.ID,
		"title", entry.Title,
		"category", entry.Category,
		"size", entry.FileSizeBytes,
	)
	s.publish("upload", entry.ID)

	return &entry, nil
}

// Download resolves an entry to its on-disk payload and increments the
// download counters. The increment happens after successful resolution
// (at-least-once across client disconnects).
func (s *CatalogService) Download(ctx context.Context, id string) (path, name, mediaType string, err error) {
	entry, err := s.store.Find(id)
	if err != nil {
		return "", "", "", ErrNotFound
	}

	path, err = s.files.Resolve(entry.FilePath)
	if err != nil {
		slog.Error("catalog entry has no backing file", "id", id, "path", entry.FilePath, "error", err)
		return "", "", "", fmt.Errorf("%w: stored file missing", ErrNotFound)
	}

	if err := s.store.IncrementDownload(id); err != nil {
		slog.Error("failed to increment download count", "id", id, "error", err)
	}

	return path, entry.FileName, entry.FileType, nil
}

// Get returns one catalog entry.
func (s *CatalogService) Get(id string) (catalog.FileEntry, error) {
	entry, err := s.store.Find(id)
	if err != nil {
		return catalog.FileEntry{}, ErrNotFound
	}
	return entry, nil
}

// List queries the catalog.
func (s *CatalogService) List(q catalog.Query) ([]catalog.FileEntry, int, bool) {
	return s.store.List(q)
}

// View records one view. Unknown ids are a tolerated no-op.
func (s *CatalogService) View(id string) error {
	return s.store.IncrementView(id)
}

// Delete removes an entry and best-effort deletes its backing files.
// The password check runs first so an unauthorized caller learns
// nothing about whether the id exists.
func (s *CatalogService) Delete(ctx context.Context, id, password string) error {
	if !s.checkPassword(password) {
		return ErrUnauthorized
	}

	entry, err := s.store.Remove(id)
	if err != nil {
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return ErrNotFound
		}
		return err
	}

	// The record is the authority; a missing physical file is logged,
	// not fatal.
	for _, p := range []string{entry.CoverImage, entry.FilePath} {
		if err := s.files.Remove(p); err != nil {
			slog.Error("failed to delete stored file", "id", id, "path", p, "error", err)
		}
	}

	slog.Info("file deleted", "id", id, "title", entry.Title)
	s.publish("delete", id)
	return nil
}

// Update applies an admin edit to an entry.
func (s *CatalogService) Update(ctx context.Context, id, password string, patch UpdatePatch) (catalog.FileEntry, error) {
	if !s.checkPassword(password) {
		return catalog.FileEntry{}, ErrUnauthorized
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return catalog.FileEntry{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return catalog.FileEntry{}, fmt.Errorf("%w: description must not be empty", ErrValidation)
	}

	entry, err := s.store.Update(id, func(e *catalog.FileEntry) {
		if patch.Title != nil {
			e.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			e.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Category != nil {
			e.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Featured != nil {
			e.Featured = *patch.Featured
		}
	})
	if err != nil {
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return catalog.FileEntry{}, ErrNotFound
		}
		return catalog.FileEntry{}, err
	}

	s.publish("update", id)
	return entry, nil
}

// Stats applies the daily-reset check and returns the counters.
func (s *CatalogService) Stats() catalog.Stats {
	return s.store.StatsSnapshot()
}

// Visit registers one visitor.
func (s *CatalogService) Visit() error {
	return s.store.TouchVisit()
}

// FileCount reports the catalog size for the health endpoint.
func (s *CatalogService) FileCount() int {
	return s.store.Len()
}

// ShareQR renders a QR code PNG for an entry's download URL.
func (s *CatalogService) ShareQR(id string) ([]byte, error) {
	if _, err := s.store.Find(id); err != nil {
		return nil, ErrNotFound
	}
	url := fmt.Sprintf("%s/api/download/%s", s.cfg.BaseURL, id)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

func (s *CatalogService) publish(event, id string) {
	if s.events != nil {
		s.events.Publish(event, id)
	}
}

// checkPassword accepts either a plain shared secret or a bcrypt hash
// in the configuration.
func (s *CatalogService) checkPassword(given string) bool {
	stored := s.cfg.AdminPassword
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// --- Helpers ---

// storedName builds a collision-resistant on-disk name from the
// original filename: sanitized base, upload timestamp, random suffix,
// original extension.
func storedName(original string, now time.Time) (string, error) {
	suffix, err := randomToken(9)
	if err != nil {
		return "", fmt.Errorf("failed to generate file suffix: %w", err)
	}
	base := sanitizeBaseName(original)
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%s-%d-%s%s", base, now.UnixMilli(), suffix, ext), nil
}

// sanitizeBaseName reduces a filename's base to a safe character set
// and a bounded length.
func sanitizeBaseName(name string) string {
	// Normalize Windows-style backslashes before filepath.Base, which
	// is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	out := b.String()
	if len(out) > 50 {
		out = out[:50]
	}
	if strings.Trim(out, "-") == "" {
		out = "file"
	}
	return out
}

// randomToken produces a URL-safe random string.
func randomToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
