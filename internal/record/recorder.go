// Package record captures tracks from a sink one after another.
package record

import (
	"context"
	"strconv"

	"github.com/jmylchreest/sinkrec/internal/command"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

// Recorder writes audio from sink to path until ctx is done.
type Recorder interface {
	Record(ctx context.Context, sink pipewire.Sink, path string) error
	Name() string
}

// PWRecorder records with pw-record.
type PWRecorder struct {
	runner  command.Runner
	command string
}

// NewPWRecorder creates a new PWRecorder. An empty name means "pw-record".
func NewPWRecorder(runner command.Runner, name string) *PWRecorder {
	if name == "" {
		name = "pw-record"
	}
	return &PWRecorder{runner: runner, command: name}
}

// Record runs the recorder targeting the sink serial. It returns ctx.Err()
// when stopped through ctx.
func (r *PWRecorder) Record(ctx context.Context, sink pipewire.Sink, path string) error {
	return r.runner.Run(ctx, r.command, "--target", strconv.Itoa(sink.Serial), path)
}

// Name returns the recorder command.
func (r *PWRecorder) Name() string {
	return r.command
}
