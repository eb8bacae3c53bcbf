// Package procutil answers questions about live processes by pid:
// existence, parentage, and scheduler state. It wraps
// github.com/shirou/gopsutil, which reads the platform's native source
// of truth (/proc on Linux, sysctl on the BSDs and macOS), so answers do
// not depend on signal permissions the way a kill(pid, 0) probe does.
//
// Everything here is a fresh query. Process-tree facts change underneath
// any cached copy, so callers should treat results as observations, not
// state.
package procutil

import (
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// Exists reports whether a process with the given pid is currently alive.
// Zombies count as existing: they still occupy a slot in the process
// table until reaped.
func Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// ParentPID returns the pid of the process's current parent. Note that
// the parent changes when the original parent exits and the process is
// reparented.
func ParentPID(pid int) (int, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, fmt.Errorf("procutil: pid %d: %w", pid, err)
	}
	ppid, err := p.Ppid()
	if err != nil {
		return 0, fmt.Errorf("procutil: parent of pid %d: %w", pid, err)
	}
	return int(ppid), nil
}

// IsStopped reports whether the process is currently suspended by a stop
// signal.
func IsStopped(pid int) (bool, error) {
	statuses, err := statusOf(pid)
	if err != nil {
		return false, err
	}
	return slices.Contains(statuses, process.Stop), nil
}

// IsZombie reports whether the process has terminated but has not been
// reaped by its parent yet.
func IsZombie(pid int) (bool, error) {
	statuses, err := statusOf(pid)
	if err != nil {
		return false, err
	}
	return slices.Contains(statuses, process.Zombie), nil
}

func statusOf(pid int) ([]string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("procutil: pid %d: %w", pid, err)
	}
	statuses, err := p.Status()
	if err != nil {
		return nil, fmt.Errorf("procutil: status of pid %d: %w", pid, err)
	}
	return statuses, nil
}
