package proc

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/time/rate"
)

// Strategy selects how a new process image is created.
type Strategy int

const (
	// StrategySpawn creates the process through os.StartProcess, the
	// runtime-managed path whose post-duplication region is the
	// runtime's own allocation-free, lock-free code. This is the
	// preferred, posix_spawn-like strategy.
	StrategySpawn Strategy = iota
	// StrategyForkExec creates the process through syscall.ForkExec with
	// a fully pre-built attribute set. Argument, environment, and
	// descriptor tables are validated and materialized in the parent
	// before the call; no caller code runs between duplication and exec.
	StrategyForkExec
)

func (s Strategy) String() string {
	switch s {
	case StrategyForkExec:
		return "forkexec"
	default:
		return "spawn"
	}
}

// FileOp identifies a descriptor operation applied to the child before
// exec.
type FileOp int

const (
	// FileInherit gives the child a duplicate of a parent descriptor.
	FileInherit FileOp = iota
	// FileOpen opens a path in the parent and installs the descriptor in
	// the child.
	FileOpen
	// FileClose leaves the child descriptor closed.
	FileClose
)

// FileAction describes one descriptor operation. Actions are applied in
// order against a child table that starts as the parent's stdin, stdout,
// and stderr. All opens and duplications happen in the parent before the
// process is created; nothing runs in the duplicated process itself.
type FileAction struct {
	Op     FileOp
	Child  int    // descriptor number in the child
	Parent int    // FileInherit: parent descriptor to duplicate
	Path   string // FileOpen
	Flags  int    // FileOpen: os.O_* flags
	Perm   os.FileMode
}

// InheritFD returns an action giving the child descriptor child a copy of
// the parent descriptor parent.
func InheritFD(child, parent int) FileAction {
	return FileAction{Op: FileInherit, Child: child, Parent: parent}
}

// OpenFile returns an action opening path in the parent and installing it
// as the child descriptor child.
func OpenFile(child int, path string, flags int, perm os.FileMode) FileAction {
	return FileAction{Op: FileOpen, Child: child, Path: path, Flags: flags, Perm: perm}
}

// CloseFD returns an action leaving the child descriptor child closed.
func CloseFD(child int) FileAction {
	return FileAction{Op: FileClose, Child: child}
}

// Request describes a process to create. It is treated as immutable once
// handed to Spawn.
type Request struct {
	// Path is the executable to run. It is not resolved against PATH.
	Path string
	// Args is the full argument vector, including argv[0]. When empty,
	// argv[0] defaults to Path.
	Args []string
	// Env is the child environment. Keys are unique by construction.
	// A nil map gives the child an empty environment; use EnvFromOS to
	// inherit the caller's.
	Env map[string]string
	// Dir, when non-empty, is the child working directory.
	Dir string
	// FileActions configure the child descriptor table. See FileAction.
	FileActions []FileAction
	// NewSession starts the child in a fresh session (and therefore a
	// fresh group). Mutually exclusive with the group fields.
	NewSession bool
	// NewProcessGroup makes the child the leader of a new group.
	NewProcessGroup bool
	// ProcessGroup, when positive, places the child in that existing
	// group. Requires NewProcessGroup to be false.
	ProcessGroup int
	// Strategy selects the creation path. The zero value is
	// StrategySpawn.
	Strategy Strategy
}

// EnvFromOS returns the calling process's environment as a Request.Env
// map. Later duplicates win, matching os.Environ precedence.
func EnvFromOS() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Spawner creates processes. The zero value is ready to use; the
// package-level Spawn uses a shared zero-value Spawner.
type Spawner struct {
	// Limiter, when set, throttles process creation. A denied
	// reservation surfaces as SpawnResourceExhausted before any system
	// call is made, shielding the system from fork storms.
	Limiter *rate.Limiter
}

var defaultSpawner Spawner

// Spawn creates a process from req using the default Spawner.
func Spawn(req Request) (*Handle, error) {
	return defaultSpawner.Spawn(req)
}

func invalidRequest(path, detail string) *SpawnError {
	return &SpawnError{Kind: SpawnInvalidRequest, Path: path, Detail: detail}
}

// validate rejects malformed requests before any system call. Interior
// NUL bytes in particular must never reach the exec boundary.
func (r *Request) validate() error {
	if r.Path == "" {
		return invalidRequest(r.Path, "empty executable path")
	}
	if strings.IndexByte(r.Path, 0) >= 0 {
		return invalidRequest(r.Path, "NUL byte in executable path")
	}
	for i, arg := range r.Args {
		if strings.IndexByte(arg, 0) >= 0 {
			return invalidRequest(r.Path, fmt.Sprintf("NUL byte in argument %d", i))
		}
	}
	for k, v := range r.Env {
		if k == "" {
			return invalidRequest(r.Path, "empty environment key")
		}
		if strings.ContainsAny(k, "=\x00") {
			return invalidRequest(r.Path, fmt.Sprintf("malformed environment key %q", k))
		}
		if strings.IndexByte(v, 0) >= 0 {
			return invalidRequest(r.Path, fmt.Sprintf("NUL byte in environment value for %q", k))
		}
	}
	if r.NewSession && (r.NewProcessGroup || r.ProcessGroup != 0) {
		return invalidRequest(r.Path, "NewSession conflicts with process-group options")
	}
	if r.NewProcessGroup && r.ProcessGroup != 0 {
		return invalidRequest(r.Path, "NewProcessGroup conflicts with ProcessGroup")
	}
	if r.ProcessGroup < 0 {
		return invalidRequest(r.Path, fmt.Sprintf("negative process group %d", r.ProcessGroup))
	}
	for _, fa := range r.FileActions {
		switch fa.Op {
		case FileInherit:
			if fa.Child < 0 || fa.Parent < 0 {
				return invalidRequest(r.Path, "negative descriptor in inherit action")
			}
		case FileOpen:
			if fa.Child < 0 {
				return invalidRequest(r.Path, "negative descriptor in open action")
			}
			if fa.Path == "" || strings.IndexByte(fa.Path, 0) >= 0 {
				return invalidRequest(r.Path, "malformed path in open action")
			}
		case FileClose:
			if fa.Child < 0 {
				return invalidRequest(r.Path, "negative descriptor in close action")
			}
		default:
			return invalidRequest(r.Path, fmt.Sprintf("unknown file action op %d", fa.Op))
		}
	}
	return nil
}

// argv returns the full argument vector, defaulting argv[0] to the path.
func (r *Request) argv() []string {
	if len(r.Args) == 0 {
		return []string{r.Path}
	}
	return r.Args
}

// envv flattens the environment map into KEY=VALUE form, sorted for
// deterministic child environments.
func (r *Request) envv() []string {
	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+r.Env[k])
	}
	return env
}
