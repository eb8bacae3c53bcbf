package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOKLineFormat(t *testing.T) {
	r := OK(
		Field{"pid", 123},
		Field{"ppid", 456},
		Field{"pgid", 123},
		Field{"sid", 123},
		Field{"exit", 0},
	)
	assert.Equal(t, "OK pid=123 ppid=456 pgid=123 sid=123 exit=0", r.Line())
}

func TestErrLineFormat(t *testing.T) {
	r := Err(unix.EPERM, "setsid_failed")
	assert.Equal(t, "ERR errno=1 msg=setsid_failed", r.Line())

	r = Err(0, "ppid_mismatch", Field{"expected", 10}, Field{"actual", 20})
	assert.Equal(t, "ERR errno=0 msg=ppid_mismatch expected=10 actual=20", r.Line())
}

func TestParseOK(t *testing.T) {
	r, err := Parse("OK pid=123 ppid=456 pgid=123 sid=123 exit=7")
	require.NoError(t, err)
	assert.True(t, r.OK)

	pid, ok := r.Field("pid")
	require.True(t, ok)
	assert.Equal(t, 123, pid)

	exit, ok := r.Field("exit")
	require.True(t, ok)
	assert.Equal(t, 7, exit)

	_, ok = r.Field("absent")
	assert.False(t, ok)
}

func TestParseErr(t *testing.T) {
	r, err := Parse("ERR errno=1 msg=second_setsid_should_fail_eperm")
	require.NoError(t, err)
	assert.False(t, r.OK)
	assert.Equal(t, 1, r.Errno)
	assert.Equal(t, "second_setsid_should_fail_eperm", r.Msg)
}

func TestParseForkExitForm(t *testing.T) {
	r, err := Parse("OK pid=100 child=101 child_exit=42")
	require.NoError(t, err)
	assert.True(t, r.OK)

	child, ok := r.Field("child")
	require.True(t, ok)
	assert.Equal(t, 101, child)

	childExit, ok := r.Field("child_exit")
	require.True(t, ok)
	assert.Equal(t, 42, childExit)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"",
		"WARN pid=1",
		"OK pid",
		"OK pid=abc",
		"ERR errno=1",
	} {
		_, err := Parse(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestParseNegativeValues(t *testing.T) {
	r, err := Parse("OK pid=100 child=101 child_exit=-1")
	require.NoError(t, err)
	childExit, ok := r.Field("child_exit")
	require.True(t, ok)
	assert.Equal(t, -1, childExit)
}
