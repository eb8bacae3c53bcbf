//go:build unix

package proc

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Spawn creates a process from req. On success the child exists with the
// requested descriptor table, environment, and group/session placement,
// and the returned handle is waitable by the caller.
//
// Both strategies keep the hazardous post-duplication region out of
// caller code: every descriptor is opened or duplicated in the parent
// beforehand, and the only work between duplication and exec is the
// runtime's own child-safe trampoline.
func (s *Spawner) Spawn(req Request) (*Handle, error) {
	strategy := req.Strategy
	if err := req.validate(); err != nil {
		spawnTotal.WithLabelValues(strategy.String(), "invalid").Inc()
		return nil, err
	}
	if s.Limiter != nil && !s.Limiter.Allow() {
		spawnTotal.WithLabelValues(strategy.String(), "throttled").Inc()
		return nil, &SpawnError{
			Kind:   SpawnResourceExhausted,
			Path:   req.Path,
			Detail: "spawn rate limit exceeded",
		}
	}

	files, cleanup, err := req.childFiles()
	if err != nil {
		spawnTotal.WithLabelValues(strategy.String(), "error").Inc()
		return nil, err
	}
	defer cleanup()

	argv := req.argv()
	envv := req.envv()
	sys := req.sysProcAttr()

	var pid int
	switch strategy {
	case StrategyForkExec:
		fds := make([]uintptr, len(files))
		for i, f := range files {
			if f == nil {
				// ^uintptr(0) converts to fd -1: closed in the child.
				fds[i] = ^uintptr(0)
			} else {
				fds[i] = f.Fd()
			}
		}
		pid, err = syscall.ForkExec(req.Path, argv, &syscall.ProcAttr{
			Dir:   req.Dir,
			Env:   envv,
			Files: fds,
			Sys:   sys,
		})
	default:
		var p *os.Process
		p, err = os.StartProcess(req.Path, argv, &os.ProcAttr{
			Dir:   req.Dir,
			Env:   envv,
			Files: files,
			Sys:   sys,
		})
		if p != nil {
			pid = p.Pid
			// The handle tracks the child by pid; drop the runtime's
			// process object so it cannot reap behind our back.
			_ = p.Release()
		}
	}
	if err != nil {
		spawnTotal.WithLabelValues(strategy.String(), "error").Inc()
		errno, ok := errnoOf(err)
		se := &SpawnError{Kind: classifySpawnErrno(errno), Errno: errno, Path: req.Path}
		if !ok {
			se.Detail = err.Error()
		}
		return nil, se
	}

	spawnTotal.WithLabelValues(strategy.String(), "ok").Inc()
	slog.Debug("proc: spawned", "pid", pid, "path", req.Path, "strategy", strategy.String())
	return &Handle{id: pid}, nil
}

// childFiles materializes the child descriptor table in the parent.
// Entry i becomes child descriptor i; nil entries stay closed. The table
// starts as the parent's stdio so a request without actions behaves like
// a plain fork+exec. Inherited descriptors are duplicated so the caller's
// originals are never touched; the returned cleanup closes everything the
// table owns once the child has its own copies.
func (r *Request) childFiles() ([]*os.File, func(), error) {
	table := []*os.File{os.Stdin, os.Stdout, os.Stderr}
	var owned []*os.File
	cleanup := func() {
		for _, f := range owned {
			_ = f.Close()
		}
	}

	for _, fa := range r.FileActions {
		for len(table) <= fa.Child {
			table = append(table, nil)
		}
		switch fa.Op {
		case FileClose:
			table[fa.Child] = nil
		case FileInherit:
			dupfd, err := unix.FcntlInt(uintptr(fa.Parent), unix.F_DUPFD_CLOEXEC, 3)
			if err != nil {
				cleanup()
				errno, _ := errnoOf(err)
				return nil, func() {}, &SpawnError{
					Kind:   SpawnInvalidRequest,
					Errno:  errno,
					Path:   r.Path,
					Detail: fmt.Sprintf("duplicate parent descriptor %d", fa.Parent),
				}
			}
			f := os.NewFile(uintptr(dupfd), fmt.Sprintf("fd%d", fa.Parent))
			owned = append(owned, f)
			table[fa.Child] = f
		case FileOpen:
			f, err := os.OpenFile(fa.Path, fa.Flags, fa.Perm)
			if err != nil {
				cleanup()
				errno, _ := errnoOf(err)
				return nil, func() {}, &SpawnError{
					Kind:   classifySpawnErrno(errno),
					Errno:  errno,
					Path:   fa.Path,
					Detail: "open file action",
				}
			}
			owned = append(owned, f)
			table[fa.Child] = f
		}
	}
	return table, cleanup, nil
}

// sysProcAttr translates the group/session request fields, already
// validated as mutually exclusive, into kernel attributes applied between
// duplication and exec by the runtime.
func (r *Request) sysProcAttr() *syscall.SysProcAttr {
	switch {
	case r.NewSession:
		return &syscall.SysProcAttr{Setsid: true}
	case r.NewProcessGroup:
		return &syscall.SysProcAttr{Setpgid: true}
	case r.ProcessGroup > 0:
		return &syscall.SysProcAttr{Setpgid: true, Pgid: r.ProcessGroup}
	default:
		return nil
	}
}

func classifySpawnErrno(errno syscall.Errno) SpawnErrorKind {
	switch errno {
	case 0:
		return SpawnFailed
	case unix.ENOENT, unix.ENOTDIR:
		return SpawnNotFound
	case unix.EACCES, unix.EPERM:
		return SpawnPermissionDenied
	case unix.ENOEXEC, unix.EISDIR:
		return SpawnNotExecutable
	case unix.EAGAIN, unix.ENOMEM, unix.EMFILE, unix.ENFILE:
		return SpawnResourceExhausted
	default:
		return SpawnFailed
	}
}
