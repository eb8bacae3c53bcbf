package proc

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Handle is a capability token for one OS process. It carries no cached
// process state beyond the pid and a reaped marker; group and session
// membership are always queried live.
//
// The zero value is not a valid handle. Use Spawn, Self, or Adopt.
type Handle struct {
	id     int
	self   bool
	reaped atomic.Bool
}

// Self returns a handle for the calling process. The pid is resolved at
// call time on every operation, so the handle stays correct across a
// fork-like boundary.
func Self() *Handle {
	return &Handle{self: true}
}

// Adopt wraps an externally obtained pid in a handle. The caller is
// responsible for having signal permission on the target. Adopted handles
// cannot be waited on unless the target is a child of the calling process.
func Adopt(pid int) (*Handle, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("proc: adopt: pid must be positive, got %d", pid)
	}
	return &Handle{id: pid}, nil
}

// PID returns the process id the handle refers to.
func (h *Handle) PID() int {
	if h.self {
		return os.Getpid()
	}
	return h.id
}

// IsSelf reports whether the handle denotes the calling process.
func (h *Handle) IsSelf() bool { return h.self }

// Reaped reports whether a terminal outcome has already been collected
// for this handle. Once true, the pid may have been reused by the kernel
// and all operations on the handle fail with a no-such-process error.
func (h *Handle) Reaped() bool { return h.reaped.Load() }

func (h *Handle) String() string {
	if h.self {
		return fmt.Sprintf("proc(self=%d)", os.Getpid())
	}
	return fmt.Sprintf("proc(%d)", h.id)
}
