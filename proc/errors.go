package proc

import (
	"errors"
	"fmt"
	"syscall"
)

// Sentinel errors returned by the wait path.
var (
	// ErrNoChange is returned by a NoHang wait when the target has not
	// changed state yet.
	ErrNoChange = errors.New("proc: no state change")

	// ErrUnrecognizedStatus indicates a wait status that matched none of
	// the exited/signaled/stopped/continued predicates. The kernel never
	// produces such a status through the legitimate wait interface, so
	// seeing this error means an internal invariant was violated.
	ErrUnrecognizedStatus = errors.New("proc: unrecognized wait status")
)

// SpawnErrorKind classifies process-creation failures.
type SpawnErrorKind int

const (
	// SpawnFailed is the catch-all for unclassified creation failures.
	SpawnFailed SpawnErrorKind = iota
	// SpawnNotFound means the executable path does not exist.
	SpawnNotFound
	// SpawnNotExecutable means the path exists but is not a runnable image.
	SpawnNotExecutable
	// SpawnPermissionDenied means the caller may not execute the path.
	SpawnPermissionDenied
	// SpawnResourceExhausted means the system refused to create another
	// process (process table, memory, or descriptor limits).
	SpawnResourceExhausted
	// SpawnInvalidRequest means the request was rejected before reaching
	// the OS: empty path, interior NUL bytes, malformed environment keys,
	// or inconsistent group/session options.
	SpawnInvalidRequest
)

func (k SpawnErrorKind) String() string {
	switch k {
	case SpawnNotFound:
		return "not-found"
	case SpawnNotExecutable:
		return "not-executable"
	case SpawnPermissionDenied:
		return "permission-denied"
	case SpawnResourceExhausted:
		return "resource-exhausted"
	case SpawnInvalidRequest:
		return "invalid-request"
	default:
		return "failed"
	}
}

// SpawnError reports a process-creation failure. Errno holds the original
// OS error code when the failure came from a system call, and is zero for
// request-validation failures.
type SpawnError struct {
	Kind   SpawnErrorKind
	Errno  syscall.Errno
	Path   string
	Detail string
}

func (e *SpawnError) Error() string {
	msg := fmt.Sprintf("proc: spawn %s: %s", e.Path, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

func (e *SpawnError) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// SignalErrorKind classifies signal-delivery failures.
type SignalErrorKind int

const (
	// SignalFailed is the catch-all for unclassified delivery failures.
	SignalFailed SignalErrorKind = iota
	// SignalNoSuchProcess means the target does not exist or was reaped.
	SignalNoSuchProcess
	// SignalPermissionDenied means the caller may not signal the target.
	SignalPermissionDenied
)

func (k SignalErrorKind) String() string {
	switch k {
	case SignalNoSuchProcess:
		return "no-such-process"
	case SignalPermissionDenied:
		return "permission-denied"
	default:
		return "failed"
	}
}

// SignalError reports a signal-delivery failure.
type SignalError struct {
	Kind  SignalErrorKind
	Errno syscall.Errno
	PID   int
}

func (e *SignalError) Error() string {
	msg := fmt.Sprintf("proc: signal pid %d: %s", e.PID, e.Kind)
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

func (e *SignalError) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// SessionErrorKind classifies session-creation failures.
type SessionErrorKind int

const (
	// SessionFailed is the catch-all for unclassified setsid failures.
	SessionFailed SessionErrorKind = iota
	// SessionAlreadyGroupLeader means the process is already a
	// process-group leader and therefore cannot become a session leader.
	// Session creation is not idempotent: a second CreateSession after a
	// successful one fails with this kind, because the first call made
	// the process a group leader.
	SessionAlreadyGroupLeader
	// SessionSelfOnly means CreateSession was invoked on a handle other
	// than Self. setsid applies to the calling process; there is no pid
	// form. Use Request.NewSession to start a child in a fresh session.
	SessionSelfOnly
)

func (k SessionErrorKind) String() string {
	switch k {
	case SessionAlreadyGroupLeader:
		return "already-group-leader"
	case SessionSelfOnly:
		return "self-only"
	default:
		return "failed"
	}
}

// SessionError reports a session-creation failure.
type SessionError struct {
	Kind  SessionErrorKind
	Errno syscall.Errno
	PID   int
}

func (e *SessionError) Error() string {
	msg := fmt.Sprintf("proc: create session pid %d: %s", e.PID, e.Kind)
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

func (e *SessionError) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// GroupErrorKind classifies process-group assignment failures.
type GroupErrorKind int

const (
	// GroupFailed is the catch-all for unclassified setpgid failures.
	GroupFailed GroupErrorKind = iota
	// GroupNoSuchProcess means the target process does not exist.
	GroupNoSuchProcess
	// GroupPermissionDenied covers both lacking authority over the
	// target (including a target that already execed) and a target that
	// is a session leader, which must keep its own group.
	GroupPermissionDenied
	// GroupInvalidArgument means the requested group id is not valid.
	GroupInvalidArgument
)

func (k GroupErrorKind) String() string {
	switch k {
	case GroupNoSuchProcess:
		return "no-such-process"
	case GroupPermissionDenied:
		return "permission-denied"
	case GroupInvalidArgument:
		return "invalid-argument"
	default:
		return "failed"
	}
}

// GroupError reports a process-group assignment failure.
type GroupError struct {
	Kind  GroupErrorKind
	Errno syscall.Errno
	PID   int
	PGID  int
}

func (e *GroupError) Error() string {
	msg := fmt.Sprintf("proc: set group of pid %d to %d: %s", e.PID, e.PGID, e.Kind)
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

func (e *GroupError) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// WaitErrorKind classifies wait failures.
type WaitErrorKind int

const (
	// WaitFailed is the catch-all for unclassified wait failures.
	WaitFailed WaitErrorKind = iota
	// WaitNoSuchProcess means the handle refers to no waitable child:
	// either the pid was never a child of the caller, or the handle was
	// already reaped by an earlier wait.
	WaitNoSuchProcess
)

func (k WaitErrorKind) String() string {
	switch k {
	case WaitNoSuchProcess:
		return "no-such-process"
	default:
		return "failed"
	}
}

// WaitError reports a wait failure. Spurious signal interruptions are
// retried inside Wait and never surface as a WaitError.
type WaitError struct {
	Kind  WaitErrorKind
	Errno syscall.Errno
	PID   int
}

func (e *WaitError) Error() string {
	msg := fmt.Sprintf("proc: wait pid %d: %s", e.PID, e.Kind)
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

func (e *WaitError) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// errnoOf extracts the underlying OS error code from an error chain, for
// syscall failures that arrive wrapped in *os.PathError or
// *os.SyscallError.
func errnoOf(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
