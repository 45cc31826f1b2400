// Package testutil isolates tests from the user's real relget state.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every relget directory at a per-test temp
// location so tests never touch the user's config, journal, download
// cache, or installed binaries. Cleanup is handled by t.TempDir.
//
// It returns the temp root for tests that need to inspect the
// directories directly.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("RELGET_CONFIG_DIR", filepath.Join(tmpDir, "config"))
	t.Setenv("RELGET_DATA_DIR", filepath.Join(tmpDir, "data"))
	t.Setenv("RELGET_CACHE_DIR", filepath.Join(tmpDir, "cache"))

	// Unattended prompts would hang a test run.
	t.Setenv("RELGET_ASSUME_YES", "")

	dirs := []string{
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "config", "specs"),
		filepath.Join(tmpDir, "data"),
		filepath.Join(tmpDir, "cache"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
