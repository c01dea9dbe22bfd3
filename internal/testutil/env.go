// Package testutil isolates tests from the user's gdvm installation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points GDVM_HOME at a fresh temporary root and clears the
// GDVM_* overrides, so a test never reads or writes the real installation
// or config. It returns the root.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "gdvm")
	if err := os.MkdirAll(root, 0o750); err != nil {
		t.Fatalf("failed to create test root %s: %v", root, err)
	}

	t.Setenv("GDVM_HOME", root)
	t.Setenv("GDVM_GITHUB_TOKEN", "")
	t.Setenv("GDVM_LOG_LEVEL", "")
	t.Setenv("GDVM_VERIFY_KEYRING", "")
	t.Setenv("NO_COLOR", "1")

	return root
}
