//go:build unix

// Package cmdutil layers convenience run helpers over the proc package:
// spawn a command, wait for it under a context, and optionally capture
// its output. Callers that need process-group control, stop/continue, or
// non-default descriptor tables should use proc directly.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/posixkit/proc-core/proc"
)

// DefaultTimeout bounds RunWithTimeout when the caller passes zero.
const DefaultTimeout = 30 * time.Minute

// Run spawns path with the given argument vector and environment,
// inheriting the caller's stdio, and waits for termination under ctx.
// The caller's environment is used when env is nil.
func Run(ctx context.Context, path string, args []string, env map[string]string) (proc.Outcome, error) {
	if env == nil {
		env = proc.EnvFromOS()
	}
	h, err := proc.Spawn(proc.Request{Path: path, Args: args, Env: env})
	if err != nil {
		return proc.Outcome{}, err
	}
	return waitOrKill(ctx, h)
}

// RunWithTimeout runs the command with a deadline. A non-positive
// timeout falls back to DefaultTimeout.
func RunWithTimeout(path string, args []string, env map[string]string, timeout time.Duration) (proc.Outcome, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Run(ctx, path, args, env)
}

// Output runs the command and returns its combined stdout and stderr
// along with the termination outcome.
func Output(ctx context.Context, path string, args []string, env map[string]string) ([]byte, proc.Outcome, error) {
	if env == nil {
		env = proc.EnvFromOS()
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, proc.Outcome{}, fmt.Errorf("cmdutil: create pipe: %w", err)
	}
	defer r.Close()

	h, err := proc.Spawn(proc.Request{
		Path: path,
		Args: args,
		Env:  env,
		FileActions: []proc.FileAction{
			proc.InheritFD(1, int(w.Fd())),
			proc.InheritFD(2, int(w.Fd())),
		},
	})
	// The child holds its own copies; drop ours so EOF arrives on exit.
	_ = w.Close()
	if err != nil {
		return nil, proc.Outcome{}, err
	}

	// Drain concurrently so a chatty child never blocks on a full pipe.
	outCh := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(r)
		outCh <- data
	}()

	outcome, err := waitOrKill(ctx, h)
	output := <-outCh
	return output, outcome, err
}

// waitOrKill waits for termination; on context expiry it kills the child
// and reaps it before reporting the context error, so no zombie is left
// behind.
func waitOrKill(ctx context.Context, h *proc.Handle) (proc.Outcome, error) {
	outcome, err := h.WaitContext(ctx, proc.WaitOptions{})
	if err == nil {
		return outcome, nil
	}
	if ctx.Err() != nil && !h.Reaped() {
		_ = h.Kill()
		_, _ = h.Wait(proc.WaitOptions{})
	}
	return proc.Outcome{}, err
}
