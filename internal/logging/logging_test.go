package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNew_LevelAndFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := New(Options{Level: "debug", File: "logs/dayplan.log", Dir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level; got %s", logger.GetLevel())
	}
	logger.WithField("date", "2025-09-18").Info("snapshot saved")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "logs", "dayplan.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "snapshot saved") || !strings.Contains(string(b), "date=2025-09-18") {
		t.Fatalf("unexpected log output: %s", b)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
