// Package command runs the external audio and notification utilities.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultStopGrace is how long a stopped process gets to exit after SIGINT
// before it is killed.
const DefaultStopGrace = 5 * time.Second

// Runner executes external commands.
type Runner interface {
	// Output runs the command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs the command, discarding stdout. When ctx is done the process
	// is interrupted rather than killed so it can flush its output.
	Run(ctx context.Context, name string, args ...string) error
}

// Error describes a failed command invocation.
type Error struct {
	Command string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger    *slog.Logger
	stopGrace time.Duration
}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner(logger *slog.Logger, stopGrace time.Duration) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if stopGrace <= 0 {
		stopGrace = DefaultStopGrace
	}
	return &ExecRunner{logger: logger, stopGrace: stopGrace}
}

// Output runs the command and returns its stdout.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Debug("exec", "command", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, &Error{
			Command: commandLine(name, args),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return out, nil
}

// Run runs the command until it exits or ctx is done.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	r.logger.Debug("exec", "command", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.stopGrace

	err := cmd.Run()
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission) {
		return &Error{Command: commandLine(name, args), Err: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Process was stopped on purpose; report why.
		return ctxErr
	}
	if err != nil {
		return &Error{
			Command: commandLine(name, args),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return nil
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
