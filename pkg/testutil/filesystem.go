package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =====================================
// File System Testing Utilities
// =====================================

// CreateTestFile creates a test file with specified content and permissions.
// filename may contain directories; they are created as needed.
func CreateTestFile(t *testing.T, dir, filename, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	return path
}

// AssertFileExists verifies that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists verifies that a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected file to not exist: %s", path)
	}
}

// AssertDirEntries verifies that dir holds exactly the named entries.
func AssertDirEntries(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	got := make(map[string]bool, len(entries))
	for _, e := range entries {
		got[e.Name()] = true
	}
	if len(got) != len(names) {
		t.Fatalf("expected %d entries in %s, found %d: %v", len(names), dir, len(got), got)
	}
	for _, n := range names {
		if !got[n] {
			t.Fatalf("expected %s in %s, found %v", n, dir, got)
		}
	}
}

// Eventually polls condition until it holds or timeout elapses.
func Eventually(t *testing.T, condition func() bool, timeout time.Duration, interval time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatalf("condition not met within %v", timeout)
}
