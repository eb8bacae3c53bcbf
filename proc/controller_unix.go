//go:build unix

package proc

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrHandleReaped rejects operations on a handle whose terminal status
// has already been collected. The pid may belong to an unrelated process
// by then, so the kernel is never consulted.
var ErrHandleReaped = errors.New("proc: handle already reaped")

// Identity is a live snapshot of a process's place in the process tree.
// It is queried fresh from the kernel on every call and must not be
// cached: groups and sessions are global OS state that can change
// underneath any in-process copy.
type Identity struct {
	PID  int
	PGID int
	SID  int
}

// Signal delivers sig to the process.
func (h *Handle) Signal(sig unix.Signal) error {
	name := unix.SignalName(sig)
	if h.reaped.Load() {
		signalTotal.WithLabelValues(name, "reaped").Inc()
		return &SignalError{Kind: SignalNoSuchProcess, PID: h.PID()}
	}
	pid := h.PID()
	if err := unix.Kill(pid, sig); err != nil {
		errno, _ := errnoOf(err)
		kind := SignalFailed
		switch errno {
		case unix.ESRCH:
			kind = SignalNoSuchProcess
		case unix.EPERM:
			kind = SignalPermissionDenied
		}
		signalTotal.WithLabelValues(name, "error").Inc()
		return &SignalError{Kind: kind, Errno: errno, PID: pid}
	}
	signalTotal.WithLabelValues(name, "ok").Inc()
	return nil
}

// Stop suspends the process. SIGSTOP cannot be caught or ignored.
func (h *Handle) Stop() error { return h.Signal(unix.SIGSTOP) }

// Continue resumes a stopped process.
func (h *Handle) Continue() error { return h.Signal(unix.SIGCONT) }

// Terminate requests an orderly shutdown with SIGTERM.
func (h *Handle) Terminate() error { return h.Signal(unix.SIGTERM) }

// Kill forcibly terminates the process with SIGKILL.
func (h *Handle) Kill() error { return h.Signal(unix.SIGKILL) }

// CreateSession makes the calling process the leader of a new session
// and returns the new session id. Only the Self handle is a valid
// target; setsid has no pid form. To start a child in its own session,
// set Request.NewSession instead.
//
// A process that is already a group leader cannot become a session
// leader, so a second CreateSession after a successful one always fails
// with SessionAlreadyGroupLeader. That failure is part of the contract,
// not a transient condition.
func (h *Handle) CreateSession() (int, error) {
	if !h.self {
		return 0, &SessionError{Kind: SessionSelfOnly, PID: h.PID()}
	}
	sid, err := unix.Setsid()
	if err != nil {
		errno, _ := errnoOf(err)
		kind := SessionFailed
		if errno == unix.EPERM {
			kind = SessionAlreadyGroupLeader
		}
		return 0, &SessionError{Kind: kind, Errno: errno, PID: os.Getpid()}
	}
	return sid, nil
}

// SetProcessGroup moves the process into group pgid. A pgid of zero, or
// equal to the process's own pid, makes it the leader of its own group.
// Moving a process into an existing group requires that group to be in
// the caller's session; session leaders cannot be moved at all.
func (h *Handle) SetProcessGroup(pgid int) error {
	pid := h.PID()
	if h.reaped.Load() {
		return &GroupError{Kind: GroupNoSuchProcess, PID: pid, PGID: pgid}
	}
	if err := unix.Setpgid(pid, pgid); err != nil {
		errno, _ := errnoOf(err)
		kind := GroupFailed
		switch errno {
		case unix.ESRCH:
			kind = GroupNoSuchProcess
		case unix.EPERM, unix.EACCES:
			kind = GroupPermissionDenied
		case unix.EINVAL:
			kind = GroupInvalidArgument
		}
		return &GroupError{Kind: kind, Errno: errno, PID: pid, PGID: pgid}
	}
	return nil
}

// Identity queries the process's current group and session membership.
// The result is a snapshot for verification, never an input to control
// decisions.
func (h *Handle) Identity() (Identity, error) {
	pid := h.PID()
	if h.reaped.Load() {
		return Identity{}, fmt.Errorf("%w: pid %d", ErrHandleReaped, pid)
	}
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return Identity{}, fmt.Errorf("proc: getpgid %d: %w", pid, err)
	}
	sid, err := unix.Getsid(pid)
	if err != nil {
		return Identity{}, fmt.Errorf("proc: getsid %d: %w", pid, err)
	}
	return Identity{PID: pid, PGID: pgid, SID: sid}, nil
}
