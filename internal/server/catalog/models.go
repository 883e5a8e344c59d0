package catalog

import (
	"fmt"
	"time"
)

// FileEntry is one catalog record: an uploaded payload file plus its
// cover image. JSON field names are the persisted document format and
// the API wire format at the same time.
type FileEntry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	CoverImage    string    `json:"coverImage"` // URL path, e.g. /uploads/images/<stored>
	FileName      string    `json:"fileName"`   // original upload name
	FilePath      string    `json:"filePath"`   // URL path, e.g. /uploads/files/<stored>
	FileSize      string    `json:"fileSize"`   // human-readable, display only
	FileSizeBytes int64     `json:"fileSizeBytes"`
	FileType      string    `json:"fileType"` // MIME type of the payload
	FileExtension string    `json:"fileExtension"`
	UploadDate    string    `json:"uploadDate"` // display string, set once
	UploadedAt    time.Time `json:"uploadedAt"`
	Downloads     int64     `json:"downloads"`
	Views         int64     `json:"views"`
	Featured      bool      `json:"featured"`
}

// Stats holds the aggregate counters. TotalFiles is derived from the
// catalog length and kept in sync by the store on every mutation.
type Stats struct {
	TotalFiles     int    `json:"totalFiles"`
	TotalDownloads int64  `json:"totalDownloads"`
	VisitorsToday  int64  `json:"visitorsToday"`
	LastResetDate  string `json:"lastResetDate"`
}

// Settings is the persisted site configuration block.
type Settings struct {
	SiteName    string `json:"siteName"`
	MaxFileSize int64  `json:"maxFileSize"`
}

// Snapshot is the full persisted document.
type Snapshot struct {
	Files    []FileEntry `json:"files"`
	Stats    Stats       `json:"stats"`
	Settings Settings    `json:"settings"`
}

// HumanSize formats a byte count the way entries store it in FileSize.
func HumanSize(b int64) string {
	const unit = 1024
	if b <= 0 {
		return "0 Bytes"
	}
	if b < unit {
		return fmt.Sprintf("%d Bytes", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGT"[exp])
}
