package client

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError reports an unusable command-line argument.
type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

// UploadArgs is a validated upload command.
type UploadArgs struct {
	Title       string
	Description string
	Category    string
	CoverPath   string
	FilePath    string
}

// ParseUploadArgs validates the upload inputs: required text fields
// and both file paths present on disk.
func ParseUploadArgs(title, description, category, coverPath, filePath string) (*UploadArgs, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Arg: "-title", Cause: "must not be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Arg: "-description", Cause: "must not be empty"}
	}

	for _, p := range []struct{ flag, path string }{
		{"-cover", coverPath},
		{"<file>", filePath},
	} {
		if p.path == "" {
			return nil, &ValidationError{Arg: p.flag, Cause: "no file provided"}
		}
		info, err := os.Stat(p.path)
		if err != nil {
			return nil, &ValidationError{Arg: p.path, Cause: "not found or not accessible"}
		}
		if info.IsDir() {
			return nil, &ValidationError{Arg: p.path, Cause: "is a directory"}
		}
	}

	return &UploadArgs{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		CoverPath:   coverPath,
		FilePath:    filePath,
	}, nil
}
