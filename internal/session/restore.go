// Package session runs a full recording session: sink discovery, volume
// handling, countdown and sequential recording.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

// VolumeController reads and writes sink volume.
type VolumeController interface {
	Get(ctx context.Context, sink pipewire.Sink) (int, error)
	Set(ctx context.Context, sink pipewire.Sink, pct int) error
}

// Restorer remembers the volume a sink had before the session changed it
// and puts it back exactly once.
type Restorer struct {
	mu       sync.Mutex
	volume   VolumeController
	logger   *slog.Logger
	sink     pipewire.Sink
	original int
	captured bool
	restored bool
}

// NewRestorer creates a new Restorer.
func NewRestorer(volume VolumeController, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Restorer{volume: volume, logger: logger}
}

// Capture records the original volume of sink.
func (r *Restorer) Capture(sink pipewire.Sink, pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sink = sink
	r.original = pct
	r.captured = true
	r.restored = false
}

// Original returns the captured volume and whether one was captured.
func (r *Restorer) Original() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.original, r.captured
}

// Restore sets the captured volume back. It does nothing when no volume was
// captured or when it has already been restored.
func (r *Restorer) Restore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.captured || r.restored {
		return nil
	}

	if err := r.volume.Set(ctx, r.sink, r.original); err != nil {
		r.logger.Error("failed to restore volume", "sink", r.sink.ID, "percent", r.original, "error", err)
		return err
	}
	r.restored = true
	r.logger.Info("restored volume", "sink", r.sink.ID, "percent", r.original)
	return nil
}
