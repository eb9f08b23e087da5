package command

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorToolNotFound(t *testing.T) {
	e := NewExecutor(time.Second, nil)
	e.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := e.Run(context.Background(), "lsblk", "-spndo", "NAME")

	var nf *ToolNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "lsblk", nf.Tool)
	assert.True(t, IsNotFound(err))
}

func TestExecutorStdout(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	e := NewExecutor(time.Second, nil)

	out, err := e.Run(context.Background(), "echo", "sdb1")

	require.NoError(t, err)
	assert.Equal(t, "sdb1\n", out)
}

func TestExecutorNonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	e := NewExecutor(time.Second, nil)

	_, err := e.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")

	var te *ToolExecutionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.ExitCode)
	assert.Equal(t, "oops", te.Stderr)
	assert.Equal(t, []string{"-c", "echo oops >&2; exit 3"}, te.Args)
	assert.False(t, IsNotFound(err))
}

func TestExecutorTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	e := NewExecutor(50*time.Millisecond, nil)

	_, err := e.Run(context.Background(), "sleep", "5")

	var te *ToolExecutionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, -1, te.ExitCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewExecutorDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecutor(0, nil).Timeout)
}

func TestFake(t *testing.T) {
	f := NewFake().
		Set("lsblk -no TYPE /dev/sdb1", "part\n").
		Fail("findmnt -no FS-OPTIONS /dev/sdb1", 1).
		Missing("udevadm")

	out, err := f.Run(context.Background(), "lsblk", "-no", "TYPE", "/dev/sdb1")
	require.NoError(t, err)
	assert.Equal(t, "part\n", out)

	_, err = f.Run(context.Background(), "findmnt", "-no", "FS-OPTIONS", "/dev/sdb1")
	var te *ToolExecutionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "findmnt", te.Tool)

	_, err = f.Run(context.Background(), "udevadm", "info")
	assert.True(t, IsNotFound(err))

	assert.Len(t, f.Calls(), 3)
}
