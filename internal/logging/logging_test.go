package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestNewBuildsLogger(t *testing.T) {
	log, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer log.Sync()
	log.Info("hello")
}

func TestNewWithFileWritesToBothSinks(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", fmt.Sprintf("%s.log", t.Name()))

	log, err := NewWithFile(logPath)
	if err != nil {
		t.Fatalf("new with file: %v", err)
	}
	log.Info("hello from test")
	log.Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("expected log file to contain at least one record")
	}
}

func TestNewWithFileEmptyPathFallsBackToConsole(t *testing.T) {
	log, err := NewWithFile("")
	if err != nil {
		t.Fatalf("new with file: %v", err)
	}
	defer log.Sync()
	log.Info("console only")
}
