package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates the target path (and parent directories) with the given
// contents. Used for fixture recordings and config files.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
