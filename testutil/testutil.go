// Package testutil provides shared helpers for the proc-core test
// suites: capturing stdout and building the proc-oracle fixture binary
// once per test run.
package testutil

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// CaptureOutput redirects os.Stdout for the duration of fn and returns
// everything written to it. The original stdout is restored before
// returning, even if fn fails.
func CaptureOutput(t *testing.T, fn func() error) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()

	fnErr := fn()

	_ = w.Close()
	os.Stdout = orig
	out := <-done

	if fnErr != nil {
		t.Logf("captured function returned error: %v", fnErr)
	}
	return out
}

var (
	oracleOnce sync.Once
	oraclePath string
	oracleErr  error
)

// OracleBinary builds the proc-oracle fixture and returns its path. The
// build runs once per test process; later calls reuse the binary.
func OracleBinary(t *testing.T) string {
	t.Helper()
	oracleOnce.Do(func() {
		dir, err := os.MkdirTemp("", "proc-oracle-*")
		if err != nil {
			oracleErr = err
			return
		}
		oraclePath = filepath.Join(dir, "proc-oracle")
		cmd := exec.Command("go", "build", "-o", oraclePath,
			"github.com/posixkit/proc-core/cmd/proc-oracle")
		if out, err := cmd.CombinedOutput(); err != nil {
			oracleErr = err
			oraclePath = ""
			_ = os.RemoveAll(dir)
			if len(out) > 0 {
				oracleErr = &buildError{output: string(out), err: err}
			}
		}
	})
	if oracleErr != nil {
		t.Fatalf("build proc-oracle: %v", oracleErr)
	}
	return oraclePath
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

func (e *buildError) Unwrap() error { return e.err }
