package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sinkrec/internal/command"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
	"github.com/jmylchreest/sinkrec/internal/volume"
)

var sinksOpts struct {
	pattern string
}

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List audio sinks and show which one would be recorded",
	Long: `List the PipeWire nodes of the configured media class and mark the
one the description pattern resolves to. Use this to check or tune
--sink-pattern before recording.`,
	Args: cobra.NoArgs,
	RunE: runSinks,
}

func init() {
	rootCmd.AddCommand(sinksCmd)

	sinksCmd.Flags().StringVar(&sinksOpts.pattern, "sink-pattern", "",
		"Regular expression for the sink description (default from config)")
}

func runSinks(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	matcher, err := sinkMatcher(sinksOpts.pattern)
	if err != nil {
		return err
	}

	runner := command.NewExecRunner(logger, cfg.StopGrace())
	client := pipewire.NewClient(runner)

	nodes, err := client.Nodes(ctx)
	if err != nil {
		return err
	}

	sinks := pipewire.ListSinks(nodes, matcher)
	if len(sinks) == 0 {
		fmt.Println(labelStyle.Render("no " + matcher.MediaClass + " nodes found"))
		return nil
	}

	selected, err := pipewire.ResolveSink(nodes, matcher)
	if err != nil && !errors.Is(err, pipewire.ErrSinkNotFound) {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-6s %-7s %s", "ID", "SERIAL", "DESCRIPTION")))
	for _, n := range sinks {
		serial := "-"
		if s, ok := n.Serial(); ok {
			serial = fmt.Sprint(s)
		}
		line := fmt.Sprintf("%-6d %-7s %s", n.ID, serial, n.Description())
		if err == nil && n.ID == selected.ID {
			line = okStyle.Render(line + "  <- selected")
		}
		fmt.Println(line)
	}

	if err != nil {
		fmt.Println(errStyle.Render(fmt.Sprintf("no sink matches %q", matcher.Description.String())))
		return nil
	}

	if pct, verr := volume.NewController(runner, logger).Get(ctx, selected); verr == nil {
		fmt.Printf("%s %d%%\n", labelStyle.Render("volume:"), pct)
	} else {
		logger.Warn("failed to read volume", "error", verr)
	}
	return nil
}
