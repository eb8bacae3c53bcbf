//go:build unix

package oracle

import (
	"errors"
	"os"
	"strconv"
	"syscall"

	"github.com/posixkit/proc-core/proc"
)

// Each command returns the protocol report to print and the process exit
// code to finish with. Commands run against the oracle's own process so
// the host test suite never mutates its own sessions or signal state.

// Status reports the process's live identity quartet plus the exit code
// it is about to finish with. The identity is queried at print time,
// never cached.
func Status(exit int) Report {
	identity, err := proc.Self().Identity()
	if err != nil {
		return Err(errnoFrom(err), "identity_query_failed")
	}
	return OK(
		Field{"pid", identity.PID},
		Field{"ppid", os.Getppid()},
		Field{"pgid", identity.PGID},
		Field{"sid", identity.SID},
		Field{"exit", exit},
	)
}

// Exit prints the status line and finishes with the given code.
func Exit(code int) (Report, int) {
	return Status(code), code
}

// StopExit stops the calling process with SIGSTOP. When some outside
// party resumes it with SIGCONT, it prints the status line and finishes
// with the given code. The line is therefore proof the stop/continue
// round trip completed.
func StopExit(code int) (Report, int) {
	if err := proc.Self().Stop(); err != nil {
		return Err(errnoFrom(err), "raise_stop_failed"), 1
	}
	// Execution resumes here after SIGCONT.
	return Status(code), code
}

// VerifyParent succeeds iff the actual parent pid equals expected. On
// mismatch the report carries both values.
func VerifyParent(expected int) (Report, int) {
	actual := os.Getppid()
	if actual != expected {
		return Err(0, "ppid_mismatch",
			Field{"expected", expected},
			Field{"actual", actual},
		), 1
	}
	return Status(0), 0
}

// CreateSession makes the process a session leader.
func CreateSession() (Report, int) {
	if _, err := proc.Self().CreateSession(); err != nil {
		return Err(errnoFrom(err), "setsid_failed"), 1
	}
	return Status(0), 0
}

// DoubleSetsid creates a session, then asserts that a second attempt
// fails because the process is now a group leader. Session creation not
// being idempotent is the invariant under test.
func DoubleSetsid() (Report, int) {
	if _, err := proc.Self().CreateSession(); err != nil {
		return Err(errnoFrom(err), "first_setsid_failed"), 1
	}

	_, err := proc.Self().CreateSession()
	var sessionErr *proc.SessionError
	if errors.As(err, &sessionErr) && sessionErr.Kind == proc.SessionAlreadyGroupLeader {
		return Status(0), 0
	}
	return Err(errnoFrom(err), "second_setsid_should_fail_eperm"), 1
}

// BecomeGroupLeader makes the process its own group leader via the
// pgid-zero form and verifies pgid==pid afterwards.
func BecomeGroupLeader() (Report, int) {
	if err := proc.Self().SetProcessGroup(0); err != nil {
		return Err(errnoFrom(err), "setpgid_failed"), 1
	}
	return verifyGroupLeadership("not_group_leader")
}

// SetpgidExplicit is BecomeGroupLeader through the explicit
// setpgid(pid, pid) form.
func SetpgidExplicit() (Report, int) {
	if err := proc.Self().SetProcessGroup(os.Getpid()); err != nil {
		return Err(errnoFrom(err), "setpgid_explicit_failed"), 1
	}
	return verifyGroupLeadership("pgid_not_set")
}

func verifyGroupLeadership(failMsg string) (Report, int) {
	identity, err := proc.Self().Identity()
	if err != nil {
		return Err(errnoFrom(err), "identity_query_failed"), 1
	}
	if identity.PGID != identity.PID {
		return Err(0, failMsg,
			Field{"pid", identity.PID},
			Field{"pgid", identity.PGID},
		), 1
	}
	return Status(0), 0
}

// ForkExit spawns a copy of the oracle that exits silently with the
// given code, reaps it, and reports the child pid and exit status. A
// child that did not exit normally reports child_exit=-1.
func ForkExit(code int) (Report, int) {
	exe, err := os.Executable()
	if err != nil {
		return Err(errnoFrom(err), "executable_path_failed"), 1
	}

	h, err := proc.Spawn(proc.Request{
		Path: exe,
		Args: []string{exe, "quiet-exit", strconv.Itoa(code)},
		Env:  proc.EnvFromOS(),
	})
	if err != nil {
		return Err(errnoFrom(err), "spawn_failed"), 1
	}

	outcome, err := h.Wait(proc.WaitOptions{})
	if err != nil {
		return Err(errnoFrom(err), "waitpid_failed"), 1
	}

	childExit := -1
	if outcome.Kind == proc.OutcomeExited {
		childExit = outcome.ExitCode
	}
	return OK(
		Field{"pid", os.Getpid()},
		Field{"child", h.PID()},
		Field{"child_exit", childExit},
	), 0
}

func errnoFrom(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}
