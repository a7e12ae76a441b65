// Package validation checks the paths the sales report command reads from
// and writes to before any work is done.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// PathValidator validates source directories and export targets
type PathValidator struct {
	logger *slog.Logger
}

// NewPathValidator creates a new path validator
func NewPathValidator(logger *slog.Logger) *PathValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PathValidator{logger: logger}
}

// FormatOf returns the export format named by the extension of path
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported output %q, use a .xlsx or .csv file", path)
}

// ValidateOutputFile checks that path names a supported export format and
// that its directory exists or can be created. Existing files are replaced
// on export, but a directory or an Excel lock file never is.
func (v *PathValidator) ValidateOutputFile(path string) (Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return "", fmt.Errorf("%s is an Excel lock file", path)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	v.logger.Debug("Output file validated",
		slog.String("file_path", path),
		slog.String("format", string(format)))
	return format, nil
}

// CountSources counts the regular files matching pattern in dir. A missing
// directory is an error; a directory without matches is not.
func (v *PathValidator) CountSources(dir, pattern string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("data directory %s does not exist", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	count := 0
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && !info.IsDir() {
			count++
		}
	}

	if count == 0 {
		v.logger.Warn("No source files match pattern",
			slog.String("directory", dir),
			slog.String("pattern", pattern))
	}
	return count, nil
}
