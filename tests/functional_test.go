package tests

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vscfl/vscfl/internal/config"
)

// TestFunctional builds the real vscflc binary and runs it against every
// fixture file under tests/ that has a matching .want file, comparing
// stderr (diagnostics/summary) against the expectation. This exercises the
// actual binary, not just the package API.
func TestFunctional(t *testing.T) {
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	binaryPath := filepath.Join(projectRoot, "vscflc-test-binary")
	defer os.Remove(binaryPath)

	t.Log("building fresh binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/vscflc")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	var testFiles []string
	err = filepath.Walk(".", func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, config.SourceFileExt) {
			wantFile := strings.TrimSuffix(path, config.SourceFileExt) + ".want"
			if _, err := os.Stat(wantFile); err == nil {
				testFiles = append(testFiles, path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk test directory: %v", err)
	}

	if len(testFiles) == 0 {
		t.Skip("no fixture files with a matching .want file")
	}

	for _, src := range testFiles {
		t.Run(src, func(t *testing.T) {
			wantFile := strings.TrimSuffix(src, config.SourceFileExt) + ".want"
			want, err := os.ReadFile(wantFile)
			if err != nil {
				t.Fatalf("reading %s: %v", wantFile, err)
			}

			cmd := exec.Command(binaryPath, src)
			out, _ := cmd.CombinedOutput()

			got := strings.TrimSpace(string(out))
			wantStr := strings.TrimSpace(string(want))
			if got != wantStr {
				t.Errorf("output mismatch for %s:\n--- want ---\n%s\n--- got ---\n%s", src, wantStr, got)
			}
		})
	}
}
