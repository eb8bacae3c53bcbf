//go:build unix

package proc

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"
)

// WaitOptions select which state changes a wait reports. The zero value
// reports only termination.
type WaitOptions struct {
	// ReportStopped also reports the child being suspended by a signal.
	ReportStopped bool
	// ReportContinued also reports a stopped child being resumed.
	ReportContinued bool
	// NoHang returns ErrNoChange immediately instead of blocking when
	// the child has not changed state.
	NoHang bool
}

func (o WaitOptions) flags() int {
	flags := 0
	if o.ReportStopped {
		flags |= unix.WUNTRACED
	}
	if o.ReportContinued {
		flags |= unix.WCONTINUED
	}
	if o.NoHang {
		flags |= unix.WNOHANG
	}
	return flags
}

// Wait blocks until the child changes state and returns the decoded
// outcome. State changes are delivered in their true chronological order:
// a stop is observed before the continue that follows it, and both before
// the eventual termination.
//
// A terminal outcome reaps the handle; any subsequent Wait fails with a
// no-such-process error without consulting the kernel. Stopped and
// continued outcomes leave the handle waitable. Interruption by an
// unrelated signal is retried transparently and never surfaces to the
// caller.
//
// Only children spawned by the calling process can be waited on, and at
// most one goroutine may wait on a handle at a time.
func (h *Handle) Wait(opts WaitOptions) (Outcome, error) {
	pid := h.PID()
	if h.reaped.Load() {
		return Outcome{}, &WaitError{Kind: WaitNoSuchProcess, PID: pid}
	}
	flags := opts.flags()
	for {
		var status unix.WaitStatus
		wpid, err := unix.Wait4(pid, &status, flags, nil)
		if err == unix.EINTR {
			waitInterrupts.Inc()
			continue
		}
		if err == unix.ECHILD {
			return Outcome{}, &WaitError{Kind: WaitNoSuchProcess, Errno: unix.ECHILD, PID: pid}
		}
		if err != nil {
			errno, _ := errnoOf(err)
			return Outcome{}, &WaitError{Kind: WaitFailed, Errno: errno, PID: pid}
		}
		if wpid == 0 {
			// WNOHANG and nothing to report.
			return Outcome{}, ErrNoChange
		}

		outcome, err := Decode(status)
		if err != nil {
			return Outcome{}, err
		}
		if outcome.Terminal() {
			h.reaped.Store(true)
		}
		reapTotal.WithLabelValues(outcome.Kind.String()).Inc()
		slog.Debug("proc: wait observed state change", "pid", wpid, "outcome", outcome.String())
		return outcome, nil
	}
}

// WaitContext behaves like Wait but honors context cancellation. A
// blocked wait cannot be interrupted once entered, so WaitContext polls
// with NoHang and a capped backoff instead of blocking in the kernel.
// Callers that need to abort promptly should signal the child and let
// the resulting state change end the wait.
func (h *Handle) WaitContext(ctx context.Context, opts WaitOptions) (Outcome, error) {
	opts.NoHang = true
	backoff := time.Millisecond
	const maxBackoff = 25 * time.Millisecond

	for {
		outcome, err := h.Wait(opts)
		if err != ErrNoChange {
			return outcome, err
		}
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
