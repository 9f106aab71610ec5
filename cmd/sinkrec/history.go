package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sinkrec/internal/adapter/output"
	"github.com/jmylchreest/sinkrec/internal/store"
)

var historyOpts struct {
	limit    int
	format   string
	template string
	clear    bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past recording sessions",
	Long: `Show the recording sessions stored in the journal, newest first.

Examples:
  # Last three sessions
  sinkrec history --limit 3

  # Machine-readable
  sinkrec history --format json

  # One line per track
  sinkrec history --template '{{.Index}} {{.Title}} {{.Status}}'

  # Forget everything
  sinkrec history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 10,
		"Number of sessions to show (0 = all)")
	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format: plain, json")
	historyCmd.Flags().StringVar(&historyOpts.template, "template", "",
		"Go template applied to each track (plain format)")
	historyCmd.Flags().BoolVar(&historyOpts.clear, "clear", false,
		"Remove all journal entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	opts := output.DefaultFormatterOptions()
	opts.Template = historyOpts.template
	formatter, err := output.NewFormatter(output.FormatType(historyOpts.format), opts)
	if err != nil {
		return err
	}

	journal, err := store.OpenJournal(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer journal.Close()

	if historyOpts.clear {
		if err := journal.Clear(); err != nil {
			return fmt.Errorf("failed to clear journal: %w", err)
		}
		fmt.Println(okStyle.Render("journal cleared"))
		return nil
	}

	results, err := journal.Load()
	if err != nil {
		return err
	}

	sessions := store.GroupSessions(results)
	if len(sessions) == 0 && historyOpts.format != string(output.FormatJSON) {
		fmt.Fprintln(os.Stderr, labelStyle.Render("no sessions recorded"))
		return nil
	}
	if historyOpts.limit > 0 && len(sessions) > historyOpts.limit {
		sessions = sessions[:historyOpts.limit]
	}

	return formatter.Format(os.Stdout, sessions)
}
