package utils

import (
	"os"
	"path/filepath"
	"time"
)

// CleanupDir removes regular files in dir older than maxAge. Jobs
// normally delete their own output; this sweeps what error paths and
// crashes leave behind.
func CleanupDir(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
