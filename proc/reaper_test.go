//go:build unix

package proc

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func spawnSleeper(t *testing.T) *Handle {
	t.Helper()
	h, err := Spawn(Request{Path: shell, Args: []string{"sh", "-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("spawn sleeper: %v", err)
	}
	t.Cleanup(func() {
		if !h.Reaped() {
			_ = h.Kill()
			_, _ = h.Wait(WaitOptions{})
		}
	})
	return h
}

func TestWaitTwiceFailsWithNoSuchProcess(t *testing.T) {
	h, err := Spawn(shellRequest("exit 0"))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	outcome, err := h.Wait(WaitOptions{})
	if err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if outcome.Kind != OutcomeExited {
		t.Fatalf("first wait outcome = %v, want exited", outcome)
	}
	if !h.Reaped() {
		t.Fatal("handle not marked reaped after terminal outcome")
	}

	_, err = h.Wait(WaitOptions{})
	var waitErr *WaitError
	if !errors.As(err, &waitErr) {
		t.Fatalf("second wait error = %v, want *WaitError", err)
	}
	if waitErr.Kind != WaitNoSuchProcess {
		t.Fatalf("second wait kind = %v, want no-such-process", waitErr.Kind)
	}
}

func TestWaitNoHang(t *testing.T) {
	h := spawnSleeper(t)

	_, err := h.Wait(WaitOptions{NoHang: true})
	if !errors.Is(err, ErrNoChange) {
		t.Fatalf("nohang wait on running child = %v, want ErrNoChange", err)
	}

	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	outcome, err := h.Wait(WaitOptions{})
	if err != nil {
		t.Fatalf("wait after terminate: %v", err)
	}
	if outcome.Kind != OutcomeSignaled || outcome.Signal != unix.SIGTERM {
		t.Fatalf("outcome = %v, want signaled(SIGTERM)", outcome)
	}
}

func TestWaitContextDeadline(t *testing.T) {
	h := spawnSleeper(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := h.WaitContext(ctx, WaitOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitContext = %v, want deadline exceeded", err)
	}
}

func TestWaitContextObservesExit(t *testing.T) {
	h, err := Spawn(shellRequest("exit 5"))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	outcome, err := h.WaitContext(ctx, WaitOptions{})
	if err != nil {
		t.Fatalf("WaitContext: %v", err)
	}
	if outcome.Kind != OutcomeExited || outcome.ExitCode != 5 {
		t.Fatalf("outcome = %v, want exited(5)", outcome)
	}
}

// TestStopContinueExitOrdering drives a child through the full
// stop/continue/exit progression and checks the outcomes arrive in true
// chronological order, with reaping deferred until termination.
func TestStopContinueExitOrdering(t *testing.T) {
	h := spawnSleeper(t)

	if err := h.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	outcome, err := h.Wait(WaitOptions{ReportStopped: true})
	if err != nil {
		t.Fatalf("wait for stop: %v", err)
	}
	if outcome.Kind != OutcomeStopped || outcome.Signal != unix.SIGSTOP {
		t.Fatalf("outcome = %v, want stopped(SIGSTOP)", outcome)
	}
	if h.Reaped() {
		t.Fatal("stopped child must not be reaped")
	}

	if err := h.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	outcome, err = h.Wait(WaitOptions{ReportContinued: true})
	if err != nil {
		t.Fatalf("wait for continue: %v", err)
	}
	if outcome.Kind != OutcomeContinued {
		t.Fatalf("outcome = %v, want continued", outcome)
	}
	if h.Reaped() {
		t.Fatal("continued child must not be reaped")
	}

	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	outcome, err = h.Wait(WaitOptions{})
	if err != nil {
		t.Fatalf("final wait: %v", err)
	}
	if !outcome.Terminal() {
		t.Fatalf("final outcome = %v, want terminal", outcome)
	}
	if !h.Reaped() {
		t.Fatal("handle should be reaped after termination")
	}
}

func TestWaitOnNonChild(t *testing.T) {
	h, err := Adopt(1)
	if err != nil {
		t.Fatalf("adopt: %v", err)
	}
	_, err = h.Wait(WaitOptions{NoHang: true})
	var waitErr *WaitError
	if !errors.As(err, &waitErr) {
		t.Fatalf("wait on non-child = %v, want *WaitError", err)
	}
	if waitErr.Kind != WaitNoSuchProcess {
		t.Fatalf("kind = %v, want no-such-process", waitErr.Kind)
	}
	if waitErr.Errno != unix.ECHILD {
		t.Fatalf("errno = %v, want ECHILD", waitErr.Errno)
	}
}
