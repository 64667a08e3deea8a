package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupDirRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.mp4")
	fresh := filepath.Join(dir, "fresh.mp4")
	for _, path := range []string{stale, fresh} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("failed to age file: %v", err)
	}

	if err := CleanupDir(dir, 24*time.Hour); err != nil {
		t.Fatalf("CleanupDir failed: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file should be kept")
	}
}

func TestCleanupDirSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}

	old := time.Now().Add(-48 * time.Hour)
	_ = os.Chtimes(sub, old, old)

	if err := CleanupDir(dir, 24*time.Hour); err != nil {
		t.Fatalf("CleanupDir failed: %v", err)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Error("subdirectories should never be removed")
	}
}
