package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/sinkrec/internal/audio"
	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

// ErrRecorderExited is returned when the recorder stops before the track
// duration has elapsed.
var ErrRecorderExited = errors.New("recorder exited before track duration elapsed")

// Journal stores per-track results.
type Journal interface {
	Append(r model.Result) error
}

// Options configures a Sequencer.
type Options struct {
	OutDir     string
	StartIndex int
	Extension  string
	SessionID  string

	// Probe decodes each finished WAV file and logs its length.
	Probe bool

	// VerifyStart warns when the output file has not appeared after StartGrace.
	VerifyStart bool
	StartGrace  time.Duration

	Journal Journal

	// OnResult is called after each track, including the last interrupted one.
	OnResult func(model.Result)
}

// Sequencer records tracks one after another.
type Sequencer struct {
	recorder Recorder
	opts     Options
	logger   *slog.Logger

	// unit scales track seconds into wall time.
	unit time.Duration
}

// NewSequencer creates a new Sequencer.
func NewSequencer(recorder Recorder, opts Options, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Extension == "" {
		opts.Extension = model.DefaultExtension
	}
	if opts.StartGrace <= 0 {
		opts.StartGrace = 3 * time.Second
	}
	return &Sequencer{
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		unit:     time.Second,
	}
}

// OutputPath returns the file path for the track at position i (0-based).
func (s *Sequencer) OutputPath(i int, t model.Track) string {
	return filepath.Join(s.opts.OutDir, t.FileName(i+s.opts.StartIndex, s.opts.Extension))
}

// Run records every track from sink. Each recording is bounded by the track
// duration; reaching it is the normal end of a segment. Run stops at the
// first failed track or when ctx is cancelled and returns the results
// gathered so far.
func (s *Sequencer) Run(ctx context.Context, sink pipewire.Sink, tracks []model.Track) ([]model.Result, error) {
	if err := os.MkdirAll(s.opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", s.opts.OutDir, err)
	}

	var watcher *OutputWatcher
	if s.opts.VerifyStart {
		w, err := NewOutputWatcher(s.opts.OutDir, s.logger)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			s.logger.Warn("output watcher unavailable", "error", err)
		} else {
			watcher = w
			defer func() { _ = w.Stop() }()
		}
	}

	results := make([]model.Result, 0, len(tracks))
	for i, t := range tracks {
		res, err := s.recordTrack(ctx, sink, i, t, watcher)
		res = s.finish(res)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (s *Sequencer) recordTrack(ctx context.Context, sink pipewire.Sink, i int, t model.Track, watcher *OutputWatcher) (model.Result, error) {
	path := s.OutputPath(i, t)
	limit := time.Duration(t.Seconds) * s.unit

	s.logger.Info("recording track",
		"index", i+s.opts.StartIndex,
		"title", t.Title,
		"seconds", t.Seconds,
		"path", path)

	res := model.Result{
		SessionID: s.opts.SessionID,
		Index:     i + s.opts.StartIndex,
		Title:     t.Title,
		Path:      path,
		Planned:   t.Seconds,
		StartedAt: time.Now().UnixMilli(),
	}

	trackCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	if watcher != nil {
		go s.verifyStart(trackCtx, watcher.Expect(path), path)
	}

	err := s.recorder.Record(trackCtx, sink, path)
	res.EndedAt = time.Now().UnixMilli()

	switch {
	case ctx.Err() != nil:
		res.Status = model.StatusInterrupted
		res.Error = ctx.Err().Error()
		return res, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		res.Status = model.StatusCompleted
		return res, nil
	case err == nil:
		err = ErrRecorderExited
	}

	res.Status = model.StatusFailed
	res.Error = err.Error()
	return res, fmt.Errorf("track %d %q: %w", res.Index, t.Title, err)
}

func (s *Sequencer) verifyStart(ctx context.Context, seen <-chan struct{}, path string) {
	t := time.NewTimer(s.opts.StartGrace)
	defer t.Stop()

	select {
	case <-seen:
		s.logger.Debug("recorder output started", "path", path)
	case <-t.C:
		s.logger.Warn("recorder output not created yet", "path", path, "after", s.opts.StartGrace)
	case <-ctx.Done():
	}
}

// finish fills in file details, journals the result and reports it.
func (s *Sequencer) finish(res model.Result) model.Result {
	if st, err := os.Stat(res.Path); err == nil {
		res.Bytes = st.Size()
	}

	if s.opts.Probe && res.Bytes > 0 && strings.EqualFold(filepath.Ext(res.Path), ".wav") {
		info, err := audio.Probe(res.Path)
		if err != nil {
			s.logger.Warn("failed to probe recording", "path", res.Path, "error", err)
		} else {
			res.Probed = info.Duration().Seconds()
		}
	}

	s.logger.Info("track finished",
		"index", res.Index,
		"status", res.Status,
		"size", humanize.Bytes(uint64(max(res.Bytes, 0))),
		"probed_seconds", res.Probed)

	if s.opts.Journal != nil && res.SessionID != "" {
		if err := s.opts.Journal.Append(res); err != nil {
			s.logger.Warn("failed to journal result", "index", res.Index, "error", err)
		}
	}

	if s.opts.OnResult != nil {
		s.opts.OnResult(res)
	}
	return res
}
