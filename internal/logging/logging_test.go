package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "berth.log")

	log, flush, err := New("info", path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Infow("refresh complete", "host", "local")
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "refresh complete") {
		t.Errorf("log file missing message: %q", content)
	}
	if !strings.Contains(content, "INFO") {
		t.Errorf("log file missing level: %q", content)
	}
}

func TestNewLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "berth.log")

	log, flush, err := New("warn", path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Infow("too quiet to appear")
	log.Warnw("loud enough")
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "too quiet") {
		t.Error("info entry written despite warn level")
	}
	if !strings.Contains(string(data), "loud enough") {
		t.Error("warn entry missing")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New("verbose", ""); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
