package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// URLPrefix is the public path under which stored files are addressed.
// Catalog entries reference their files as "/uploads/images/<name>" and
// "/uploads/files/<name>"; the store maps those back to disk.
const URLPrefix = "/uploads/"

const (
	imageDir = "images"
	fileDir  = "files"
)

// StoredFile describes one file on disk for the orphan sweeper.
type StoredFile struct {
	URLPath string
	ModTime time.Time
}

// Store defines the file storage backend. Separated out so the
// filesystem can be swapped for an object store without touching the
// service layer.
type Store interface {
	EnsureDirs() error
	SaveImage(name string, data io.Reader) (string, int64, error)
	SaveFile(name string, data io.Reader) (string, int64, error)
	Resolve(urlPath string) (string, error)
	Remove(urlPath string) error
	ListStored() ([]StoredFile, error)
}

// FileStore keeps uploaded files on the local filesystem, cover images
// and payload files in separate subtrees.
type FileStore struct {
	basePath string
}

// NewFileStore creates a filesystem storage backend rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// EnsureDirs creates the images/ and files/ subtrees.
func (fs *FileStore) EnsureDirs() error {
	for _, sub := range []string{imageDir, fileDir} {
		dir := filepath.Join(fs.basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return nil
}

// SaveImage writes a cover image under images/ and returns its URL
// path and byte count.
func (fs *FileStore) SaveImage(name string, data io.Reader) (string, int64, error) {
	return fs.save(imageDir, name, data)
}

// SaveFile writes a payload file under files/ and returns its URL path
// and byte count.
func (fs *FileStore) SaveFile(name string, data io.Reader) (string, int64, error) {
	return fs.save(fileDir, name, data)
}

func (fs *FileStore) save(sub, name string, data io.Reader) (string, int64, error) {
	diskPath := filepath.Join(fs.basePath, sub, name)

	file, err := os.Create(diskPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file %s: %w", diskPath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up the partial file so the catalog never references it
		os.Remove(diskPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return URLPrefix + sub + "/" + name, n, nil
}

// Resolve maps a stored URL path back to an absolute disk path,
// rejecting anything that escapes the storage root. The file must
// exist.
func (fs *FileStore) Resolve(urlPath string) (string, error) {
	diskPath, err := fs.diskPath(urlPath)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(diskPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("stored file missing for %s: %w", urlPath, os.ErrNotExist)
		}
		return "", fmt.Errorf("failed to stat %s: %w", diskPath, err)
	}
	return diskPath, nil
}

// Remove deletes the stored file behind urlPath. A file that is
// already gone is not an error.
func (fs *FileStore) Remove(urlPath string) error {
	diskPath, err := fs.diskPath(urlPath)
	if err != nil {
		return err
	}
	if err := os.Remove(diskPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", diskPath, err)
	}
	return nil
}

// ListStored walks both subtrees and returns every stored file.
func (fs *FileStore) ListStored() ([]StoredFile, error) {
	var out []StoredFile
	for _, sub := range []string{imageDir, fileDir} {
		entries, err := os.ReadDir(filepath.Join(fs.basePath, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", sub, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			out = append(out, StoredFile{
				URLPath: URLPrefix + sub + "/" + e.Name(),
				ModTime: info.ModTime(),
			})
		}
	}
	return out, nil
}

// BasePath returns the storage root, used for static file serving.
func (fs *FileStore) BasePath() string {
	return fs.basePath
}

// diskPath validates a URL path and joins it under the storage root.
// Escapes (.., absolute rewrites, NUL) are rejected.
func (fs *FileStore) diskPath(urlPath string) (string, error) {
	rel, ok := strings.CutPrefix(urlPath, URLPrefix)
	if !ok || rel == "" || strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("invalid storage path %q", urlPath)
	}

	abs := filepath.Clean(filepath.Join(fs.basePath, filepath.FromSlash(rel)))
	root := filepath.Clean(fs.basePath)
	if abs == root || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage path %q escapes the upload root", urlPath)
	}
	return abs, nil
}
