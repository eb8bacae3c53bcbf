//go:build unix

package proc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const shell = "/bin/sh"

func shellRequest(script string) Request {
	return Request{
		Path: shell,
		Args: []string{"sh", "-c", script},
	}
}

// mustReap waits for a terminal outcome, failing the test otherwise.
func mustReap(t *testing.T, h *Handle) Outcome {
	t.Helper()
	outcome, err := h.Wait(WaitOptions{})
	require.NoError(t, err)
	require.True(t, outcome.Terminal(), "expected terminal outcome, got %v", outcome)
	return outcome
}

func TestSpawnValidation(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		detail string
	}{
		{"empty path", Request{}, "empty executable path"},
		{"nul in path", Request{Path: "/bin/\x00sh"}, "NUL byte in executable path"},
		{"nul in arg", Request{Path: shell, Args: []string{"sh", "a\x00b"}}, "NUL byte in argument 1"},
		{"empty env key", Request{Path: shell, Env: map[string]string{"": "v"}}, "empty environment key"},
		{"equals in env key", Request{Path: shell, Env: map[string]string{"A=B": "v"}}, "malformed environment key"},
		{"nul in env value", Request{Path: shell, Env: map[string]string{"A": "v\x00"}}, "NUL byte in environment value"},
		{"session and group conflict", Request{Path: shell, NewSession: true, NewProcessGroup: true}, "NewSession conflicts"},
		{"two group options", Request{Path: shell, NewProcessGroup: true, ProcessGroup: 5}, "NewProcessGroup conflicts"},
		{"negative group", Request{Path: shell, ProcessGroup: -1}, "negative process group"},
		{"negative fd", Request{Path: shell, FileActions: []FileAction{CloseFD(-1)}}, "negative descriptor"},
		{"open without path", Request{Path: shell, FileActions: []FileAction{{Op: FileOpen, Child: 3}}}, "malformed path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Spawn(tt.req)
			var spawnErr *SpawnError
			require.ErrorAs(t, err, &spawnErr)
			assert.Equal(t, SpawnInvalidRequest, spawnErr.Kind)
			assert.Contains(t, spawnErr.Detail, tt.detail)
			assert.Zero(t, spawnErr.Errno)
		})
	}
}

func TestSpawnNotFound(t *testing.T) {
	_, err := Spawn(Request{Path: filepath.Join(t.TempDir(), "missing")})
	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, SpawnNotFound, spawnErr.Kind)
	assert.Equal(t, unix.ENOENT, spawnErr.Errno)
	assert.True(t, errors.Is(err, unix.ENOENT))
}

func TestSpawnPermissionDenied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	_, err := Spawn(Request{Path: path})
	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, SpawnPermissionDenied, spawnErr.Kind)
	assert.Equal(t, unix.EACCES, spawnErr.Errno)
}

func TestSpawnExitCodes(t *testing.T) {
	for _, strategy := range []Strategy{StrategySpawn, StrategyForkExec} {
		for _, code := range []int{0, 1, 42, 128, 255} {
			req := Request{
				Path:     shell,
				Args:     []string{"sh", "-c", "exit $CODE"},
				Env:      map[string]string{"CODE": strconv.Itoa(code)},
				Strategy: strategy,
			}
			h, err := Spawn(req)
			require.NoError(t, err, "strategy %v code %d", strategy, code)
			outcome := mustReap(t, h)
			assert.Equal(t, OutcomeExited, outcome.Kind)
			assert.Equal(t, code, outcome.ExitCode, "strategy %v", strategy)
		}
	}
}

func TestSpawnWritesThroughPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	h, err := Spawn(Request{
		Path:        shell,
		Args:        []string{"sh", "-c", "echo hello"},
		FileActions: []FileAction{InheritFD(1, int(w.Fd()))},
	})
	require.NoError(t, err)
	// Close the parent's copy so the read below sees EOF once the child
	// exits.
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	outcome := mustReap(t, h)
	assert.Equal(t, OutcomeExited, outcome.Kind)
	assert.Equal(t, 0, outcome.ExitCode)
}

func TestSpawnOpenFileAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.txt")
	h, err := Spawn(Request{
		Path: shell,
		Args: []string{"sh", "-c", "echo captured"},
		FileActions: []FileAction{
			OpenFile(1, path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644),
		},
	})
	require.NoError(t, err)
	mustReap(t, h)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "captured\n", string(data))
}

func TestSpawnClosedStdout(t *testing.T) {
	// With stdout closed, the write fails and the script reports it.
	h, err := Spawn(Request{
		Path:        shell,
		Args:        []string{"sh", "-c", "echo lost 2>/dev/null; exit 9"},
		FileActions: []FileAction{CloseFD(1)},
	})
	require.NoError(t, err)
	outcome := mustReap(t, h)
	assert.Equal(t, OutcomeExited, outcome.Kind)
	assert.Equal(t, 9, outcome.ExitCode)
}

func TestSpawnNewProcessGroup(t *testing.T) {
	h, err := Spawn(Request{
		Path:            shell,
		Args:            []string{"sh", "-c", "sleep 30"},
		NewProcessGroup: true,
	})
	require.NoError(t, err)
	defer func() {
		_ = h.Kill()
		_, _ = h.Wait(WaitOptions{})
	}()

	identity, err := h.Identity()
	require.NoError(t, err)
	assert.Equal(t, h.PID(), identity.PGID, "child should lead its own group")

	self, err := Self().Identity()
	require.NoError(t, err)
	assert.Equal(t, self.SID, identity.SID, "child should stay in the caller's session")
}

func TestSpawnNewSession(t *testing.T) {
	h, err := Spawn(Request{
		Path:       shell,
		Args:       []string{"sh", "-c", "sleep 30"},
		NewSession: true,
	})
	require.NoError(t, err)
	defer func() {
		_ = h.Kill()
		_, _ = h.Wait(WaitOptions{})
	}()

	identity, err := h.Identity()
	require.NoError(t, err)
	assert.Equal(t, h.PID(), identity.SID, "child should lead its own session")
	assert.Equal(t, h.PID(), identity.PGID, "a session leader leads its own group")
}

func TestSpawnerLimiter(t *testing.T) {
	s := &Spawner{Limiter: rate.NewLimiter(0, 1)}

	h, err := s.Spawn(shellRequest("exit 0"))
	require.NoError(t, err)
	mustReap(t, h)

	_, err = s.Spawn(shellRequest("exit 0"))
	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, SpawnResourceExhausted, spawnErr.Kind)
	assert.Zero(t, spawnErr.Errno)
}

func TestEnvFromOS(t *testing.T) {
	t.Setenv("PROC_CORE_TEST_MARKER", "present")
	env := EnvFromOS()
	assert.Equal(t, "present", env["PROC_CORE_TEST_MARKER"])
}
