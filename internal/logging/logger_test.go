package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pharmawatch/eofscraper/internal/config"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(config.LoggingConfig{Level: "debug", Development: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

func TestNewFileLogger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scraper.log")
	logger, err := New(config.LoggingConfig{
		Level:      "info",
		FilePath:   path,
		MaxSizeMB:  10,
		MaxBackups: 5,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("file logger ready")
	logger.Sync() //nolint:errcheck // best-effort flush

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file logger ready") {
		t.Fatalf("expected log line in file, got: %s", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
