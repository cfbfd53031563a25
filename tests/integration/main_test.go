package integration

import (
	"fmt"
	"os"
	"testing"
)

// TestMain builds the bookshelf binary once, runs the suites, and stops the
// mongo container if one was started.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, "find project root:", err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "bookshelf-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create temp dir:", err)
		os.Exit(1)
	}
	BuildBookshelf(projectRoot, tmpDir)

	code := m.Run()

	stopMongo()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}
