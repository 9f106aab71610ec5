package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sinkrec/internal/adapter/input"
	"github.com/jmylchreest/sinkrec/internal/command"
	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/notify"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
	"github.com/jmylchreest/sinkrec/internal/record"
	"github.com/jmylchreest/sinkrec/internal/session"
	"github.com/jmylchreest/sinkrec/internal/store"
	"github.com/jmylchreest/sinkrec/internal/volume"
)

var recordOpts struct {
	tracks      string
	outDir      string
	startIndex  int
	dryRun      bool
	countdown   int
	sinkPattern string
	noJournal   bool
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record every track of a track list",
	Long: `Record the audio sink into one WAV file per track.

The track list is a YAML sequence of [title, duration] pairs, where the
duration is SS, MM:SS or HH:MM:SS. Files are named NNNN_<title>.wav,
numbered from --start-index.

Examples:
  # Record an album into ./out
  sinkrec record --tracks album.yaml --out-dir out

  # Continue numbering at 12
  sinkrec record --tracks side-b.yaml --out-dir out --start-index 12

  # Check the sink and volume without recording
  sinkrec record --tracks album.yaml --out-dir out --dry-run

Press Ctrl+C to stop. The volume is restored either way; a second Ctrl+C
exits immediately.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	addRecordFlags(recordCmd)
}

// addRecordFlags registers the record flags on cmd. The root command gets
// them too since record is its default action.
func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&recordOpts.tracks, "tracks", "t", "",
		"Track list file (YAML, - for stdin)")
	cmd.Flags().StringVarP(&recordOpts.outDir, "out-dir", "o", ".",
		"Directory for the recorded files")
	cmd.Flags().IntVar(&recordOpts.startIndex, "start-index", 1,
		"Number of the first track file")
	cmd.Flags().BoolVar(&recordOpts.dryRun, "dry-run", false,
		"Resolve the sink and print the plan without recording")
	cmd.Flags().IntVar(&recordOpts.countdown, "countdown", -1,
		"Countdown seconds before recording (default from config)")
	cmd.Flags().StringVar(&recordOpts.sinkPattern, "sink-pattern", "",
		"Regular expression for the sink description (default from config)")
	cmd.Flags().BoolVar(&recordOpts.noJournal, "no-journal", false,
		"Do not write results to the session journal")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordOpts.tracks == "" {
		return errors.New("--tracks is required")
	}
	if recordOpts.startIndex < 0 {
		return fmt.Errorf("--start-index must not be negative, got %d", recordOpts.startIndex)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// After the first signal the default handler is back, so a second one
	// terminates the process.
	go func() {
		<-ctx.Done()
		stop()
	}()

	tracks, err := loadTracks(ctx, recordOpts.tracks)
	if err != nil {
		return err
	}

	matcher, err := sinkMatcher(recordOpts.sinkPattern)
	if err != nil {
		return err
	}

	runner := command.NewExecRunner(logger, cfg.StopGrace())

	sessionID, err := model.NewSessionID()
	if err != nil {
		return fmt.Errorf("failed to create session id: %w", err)
	}

	opts := record.Options{
		OutDir:      recordOpts.outDir,
		StartIndex:  recordOpts.startIndex,
		Extension:   cfg.Record.Extension,
		SessionID:   sessionID,
		Probe:       cfg.Record.Probe,
		VerifyStart: cfg.Record.VerifyStart,
		StartGrace:  cfg.StartGrace(),
		OnResult:    printResult,
	}

	if cfg.Journal.Enabled && !recordOpts.noJournal && !recordOpts.dryRun {
		journal, err := store.OpenJournal(cfg.JournalPath())
		if err != nil {
			logger.Warn("session journal unavailable", "error", err)
		} else {
			defer journal.Close()
			opts.Journal = journal
		}
	}

	seq := record.NewSequencer(record.NewPWRecorder(runner, cfg.Record.Command), opts, logger)

	countdown := cfg.Countdown.Seconds
	if recordOpts.countdown >= 0 {
		countdown = recordOpts.countdown
	}

	var notifier notify.Notifier = notify.Nop{}
	if !recordOpts.dryRun {
		notifier = notify.New(cfg.Countdown.Backend, cfg.Countdown.AppName, runner, logger)
	}
	defer notifier.Close()

	deps := session.Deps{
		Finder:    pipewire.NewClient(runner),
		Volume:    volume.NewController(runner, logger),
		Notifier:  notifier,
		Sequencer: seq,
		Logger:    logger,
	}
	plan := session.Plan{
		Tracks:           tracks,
		Matcher:          matcher,
		MaxVolume:        cfg.Volume.Max,
		CountdownSeconds: countdown,
		CountdownTick:    cfg.CountdownTick(),
		DryRun:           recordOpts.dryRun,
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d tracks, %s total", len(tracks),
		model.FormatSeconds(int(model.TotalDuration(tracks).Seconds())))))

	rep, err := session.Run(ctx, deps, plan)

	if recordOpts.dryRun && err == nil {
		fmt.Printf("%s %s (volume %d%%)\n", labelStyle.Render("sink:"), rep.Sink, rep.OriginalVolume)
		for i, t := range tracks {
			fmt.Printf("  %s  %8s\n", seq.OutputPath(i, t), model.FormatSeconds(t.Seconds))
		}
		return nil
	}

	if errors.Is(err, context.Canceled) {
		progress := fmt.Sprintf("after %d of %d tracks", completed(rep.Results), len(tracks))
		fmt.Println(errStyle.Render("interrupted"), labelStyle.Render(progress))
		alert(notifier, "Recording interrupted", progress)
		return err
	}
	if err != nil {
		if len(rep.Results) > 0 {
			alert(notifier, "Recording failed", err.Error())
		}
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("recorded %d tracks into %s", len(rep.Results), recordOpts.outDir)))
	return nil
}

// alert raises a desktop notification on a context of its own, since the
// session context may already be cancelled.
func alert(n notify.Notifier, summary, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := notify.Alert(ctx, n, summary, body); err != nil {
		logger.Warn("failed to send notification", "error", err)
	}
}

func loadTracks(ctx context.Context, path string) ([]model.Track, error) {
	src, err := input.NewSource(path)
	if err != nil {
		return nil, err
	}
	tracks, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return tracks, nil
}

func sinkMatcher(pattern string) (pipewire.Matcher, error) {
	if pattern == "" {
		pattern = cfg.Sink.DescriptionPattern
	}
	return pipewire.NewMatcher(cfg.Sink.MediaClass, pattern)
}

func printResult(r model.Result) {
	status := okStyle.Render(string(r.Status))
	if r.Status != model.StatusCompleted {
		status = errStyle.Render(string(r.Status))
	}
	fmt.Printf("%4d  %-11s %8s  %9s  %s\n",
		r.Index,
		status,
		model.FormatSeconds(int(r.Elapsed().Seconds())),
		humanize.Bytes(uint64(max(r.Bytes, 0))),
		r.Path)
}

func completed(results []model.Result) int {
	n := 0
	for _, r := range results {
		if r.Status == model.StatusCompleted {
			n++
		}
	}
	return n
}
