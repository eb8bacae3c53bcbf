//go:build unix

package proc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// OutcomeKind identifies which variant of an Outcome is populated.
type OutcomeKind int

const (
	// OutcomeExited means the process terminated voluntarily; ExitCode
	// holds its exit status.
	OutcomeExited OutcomeKind = iota + 1
	// OutcomeSignaled means a signal terminated the process; Signal and
	// CoreDumped are populated.
	OutcomeSignaled
	// OutcomeStopped means the process was suspended by a stop signal;
	// Signal holds the stopping signal.
	OutcomeStopped
	// OutcomeContinued means a stopped process was resumed.
	OutcomeContinued
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExited:
		return "exited"
	case OutcomeSignaled:
		return "signaled"
	case OutcomeStopped:
		return "stopped"
	case OutcomeContinued:
		return "continued"
	default:
		return "unknown"
	}
}

// Outcome is the decoded form of one kernel-reported state change.
// Exactly one variant is populated; the fields beyond Kind are only
// meaningful for the variants documented on each.
type Outcome struct {
	Kind       OutcomeKind
	ExitCode   int         // OutcomeExited: 0-255
	Signal     unix.Signal // OutcomeSignaled, OutcomeStopped
	CoreDumped bool        // OutcomeSignaled
}

// Terminal reports whether the outcome reaped the process. Stopped and
// continued processes remain waitable.
func (o Outcome) Terminal() bool {
	return o.Kind == OutcomeExited || o.Kind == OutcomeSignaled
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeExited:
		return fmt.Sprintf("exited(%d)", o.ExitCode)
	case OutcomeSignaled:
		if o.CoreDumped {
			return fmt.Sprintf("signaled(%s, core dumped)", unix.SignalName(o.Signal))
		}
		return fmt.Sprintf("signaled(%s)", unix.SignalName(o.Signal))
	case OutcomeStopped:
		return fmt.Sprintf("stopped(%s)", unix.SignalName(o.Signal))
	case OutcomeContinued:
		return "continued"
	default:
		return "unknown"
	}
}

// Decode translates a raw wait status into an Outcome. It is a pure
// function: the exited, signaled, stopped, and continued predicates are
// mutually exclusive by kernel contract, and the raw status never leaves
// this boundary. A status matching no predicate yields
// ErrUnrecognizedStatus rather than a silent default.
func Decode(status unix.WaitStatus) (Outcome, error) {
	switch {
	case status.Exited():
		return Outcome{
			Kind:     OutcomeExited,
			ExitCode: status.ExitStatus() & 0xff,
		}, nil
	case status.Signaled():
		return Outcome{
			Kind:       OutcomeSignaled,
			Signal:     status.Signal(),
			CoreDumped: status.CoreDump(),
		}, nil
	case status.Stopped():
		return Outcome{
			Kind:   OutcomeStopped,
			Signal: status.StopSignal(),
		}, nil
	case status.Continued():
		return Outcome{Kind: OutcomeContinued}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %#x", ErrUnrecognizedStatus, int(status))
	}
}
