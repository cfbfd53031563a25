// Package integration runs the bookshelf suites against live backends and
// drives the built bookshelf binary end to end.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// bookshelfBin is the path to the built bookshelf binary.
	bookshelfBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// BuildBookshelf builds cmd/bookshelf into dir and records the result for
// NewTestEnv.
func BuildBookshelf(root, dir string) {
	bookshelfBin = filepath.Join(dir, "bookshelf")
	cmd := exec.Command("go", "build", "-o", bookshelfBin, "./cmd/bookshelf")
	cmd.Dir = root
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	}
}

// TestEnv is an isolated settings file and sqlite data directory.
type TestEnv struct {
	t        *testing.T
	TempDir  string
	Settings string
	DataDir  string
}

// NewTestEnv creates a new isolated test environment whose settings select
// the sqlite backend.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build bookshelf: %v", buildErr)
	}
	if bookshelfBin == "" {
		t.Fatal("bookshelf binary not built (bookshelfBin is empty)")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:        t,
		TempDir:  tempDir,
		Settings: filepath.Join(tempDir, "appsettings.json"),
		DataDir:  filepath.Join(tempDir, "data"),
	}

	content, err := json.Marshal(map[string]any{
		"db":  map[string]any{"backend": "sqlite", "dataDir": env.DataDir},
		"log": map[string]any{"level": "warn"},
	})
	if err != nil {
		t.Fatalf("marshal settings: %v", err)
	}
	if err := os.WriteFile(env.Settings, content, 0o644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return env
}

// CmdResult holds the result of a bookshelf command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunBookshelf executes the bookshelf CLI with the given arguments.
func (e *TestEnv) RunBookshelf(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--settings", e.Settings}, args...)
	cmd := exec.Command(bookshelfBin, allArgs...)
	cmd.Env = append(os.Environ(), "BOOKSHELF_SETTINGS=", "BOOKSHELF_DATA_DIR=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run bookshelf: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunBookshelf executes the bookshelf CLI and fails the test if it
// returns non-zero.
func (e *TestEnv) MustRunBookshelf(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunBookshelf(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("bookshelf %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}
