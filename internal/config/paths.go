package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ResolvePath returns an absolute, cleaned version of p. Relative paths are
// taken from the working directory. An empty path stays empty.
func ResolvePath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", p, err)
	}
	return abs, nil
}

// EnsureLogDirectory creates the directory holding the log file when file
// logging is enabled.
func (c *Config) EnsureLogDirectory() error {
	if c.Logging.Output == "console" || c.Logging.FilePath == "" {
		return nil
	}

	dir := filepath.Dir(c.Logging.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	slog.Default().Debug("Ensured directory exists", slog.String("directory", dir))
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution records the resolved source locations at startup.
func (c *Config) LogPathResolution(logger *slog.Logger) {
	wd, _ := os.Getwd()
	if c.Sources.UsesMapping() {
		logger.Info("Source paths resolved",
			slog.String("method", "mapping"),
			slog.Int("locations", len(c.Sources.Locations)),
			slog.String("working_dir", wd))
		return
	}

	logger.Info("Source paths resolved",
		slog.String("method", "directory"),
		slog.Group("paths",
			slog.String("data_dir", c.Sources.DataDir),
			slog.String("pattern", c.Sources.Pattern),
			slog.Bool("exists", FileExists(c.Sources.DataDir)),
		),
		slog.String("working_dir", wd))
}
