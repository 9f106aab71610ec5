package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/notify"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

// DefaultRestoreTimeout bounds the final volume restore.
const DefaultRestoreTimeout = 10 * time.Second

// ErrNoTracks is returned for an empty track list.
var ErrNoTracks = errors.New("no tracks to record")

// SinkFinder resolves the sink to record from.
type SinkFinder interface {
	FindSink(ctx context.Context, m pipewire.Matcher) (pipewire.Sink, error)
}

// Sequencer records the tracks.
type Sequencer interface {
	Run(ctx context.Context, sink pipewire.Sink, tracks []model.Track) ([]model.Result, error)
}

// Deps are the collaborators of a session.
type Deps struct {
	Finder    SinkFinder
	Volume    VolumeController
	Notifier  notify.Notifier
	Sequencer Sequencer
	Logger    *slog.Logger
}

// Plan describes what a session should do.
type Plan struct {
	Tracks  []model.Track
	Matcher pipewire.Matcher

	// MaxVolume is the volume used while recording.
	MaxVolume int

	CountdownSeconds int
	CountdownTick    time.Duration

	// DryRun resolves the sink and reads the volume, then stops.
	DryRun bool

	RestoreTimeout time.Duration
}

// Report summarises a session.
type Report struct {
	Sink           pipewire.Sink
	OriginalVolume int
	Results        []model.Result
}

// Run executes the session. The original volume is restored whenever it was
// read, including when ctx is cancelled by a signal.
func Run(ctx context.Context, deps Deps, plan Plan) (rep Report, err error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(plan.Tracks) == 0 {
		return rep, ErrNoTracks
	}

	sink, err := deps.Finder.FindSink(ctx, plan.Matcher)
	if err != nil {
		return rep, fmt.Errorf("failed to resolve sink: %w", err)
	}
	rep.Sink = sink
	logger.Info("found audio sink", "id", sink.ID, "serial", sink.Serial, "description", sink.Description)

	original, err := deps.Volume.Get(ctx, sink)
	if err != nil {
		return rep, err
	}

	restorer := NewRestorer(deps.Volume, logger)
	restorer.Capture(sink, original)
	rep.OriginalVolume, _ = restorer.Original()

	if plan.DryRun {
		logger.Info("dry run, not recording", "tracks", len(plan.Tracks), "volume", rep.OriginalVolume)
		return rep, nil
	}

	defer func() {
		timeout := plan.RestoreTimeout
		if timeout <= 0 {
			timeout = DefaultRestoreTimeout
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if rerr := restorer.Restore(rctx); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore volume: %w", rerr))
		}
	}()

	if err := deps.Volume.Set(ctx, sink, plan.MaxVolume); err != nil {
		return rep, err
	}

	if deps.Notifier != nil {
		if err := notify.Countdown(ctx, deps.Notifier, plan.CountdownSeconds, plan.CountdownTick); err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			// A missing notification daemon must not stop the recording.
			logger.Warn("countdown notification failed", "error", err)
		}
	}

	results, err := deps.Sequencer.Run(ctx, sink, plan.Tracks)
	rep.Results = results
	if err != nil {
		return rep, err
	}

	logger.Info("all tracks recorded", "count", len(results))
	return rep, nil
}
