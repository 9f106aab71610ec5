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

func TestExecRunner_Output(t *testing.T) {
	r := NewExecRunner(nil, 0)

	out, err := r.Output(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExecRunner_OutputError(t *testing.T) {
	r := NewExecRunner(nil, 0)

	_, err := r.Output(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var cmdErr *Error
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "boom", cmdErr.Stderr)
	assert.Contains(t, err.Error(), "sh -c")
}

func TestExecRunner_RunDeadline(t *testing.T) {
	r := NewExecRunner(nil, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, "sleep", "5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecRunner_RunEarlyExit(t *testing.T) {
	r := NewExecRunner(nil, 0)

	err := r.Run(context.Background(), "sh", "-c", "exit 1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunner_RunMissingCommand(t *testing.T) {
	r := NewExecRunner(nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, "sinkrec-no-such-recorder", "--target", "1")
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.NotErrorIs(t, err, context.Canceled)

	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Command, "sinkrec-no-such-recorder")
}

func TestExecRunner_RunSuccess(t *testing.T) {
	r := NewExecRunner(nil, 0)
	assert.NoError(t, r.Run(context.Background(), "true"))
}

func TestError_Message(t *testing.T) {
	err := &Error{Command: "wpctl get-volume 1", Err: errors.New("exit status 1")}
	assert.Equal(t, "wpctl get-volume 1: exit status 1", err.Error())
}
