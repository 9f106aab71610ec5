package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sinkrec/internal/model"
)

var tracksOpts struct {
	tracks     string
	startIndex int
}

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Validate a track list and print it",
	Long: `Parse and validate a track list without touching the audio system.
Prints the file name each track would get, its duration and the total.`,
	Args: cobra.NoArgs,
	RunE: runTracks,
}

func init() {
	rootCmd.AddCommand(tracksCmd)

	tracksCmd.Flags().StringVarP(&tracksOpts.tracks, "tracks", "t", "",
		"Track list file (YAML, - for stdin)")
	tracksCmd.Flags().IntVar(&tracksOpts.startIndex, "start-index", 1,
		"Number of the first track file")
	_ = tracksCmd.MarkFlagRequired("tracks")
}

func runTracks(cmd *cobra.Command, args []string) error {
	tracks, err := loadTracks(cmd.Context(), tracksOpts.tracks)
	if err != nil {
		return err
	}

	ext := cfg.Record.Extension
	for i, t := range tracks {
		fmt.Printf("%9s  %s\n",
			model.FormatSeconds(t.Seconds),
			t.FileName(i+tracksOpts.startIndex, ext))
	}

	total := int(model.TotalDuration(tracks).Seconds())
	fmt.Println(headerStyle.Render(fmt.Sprintf("%9s  %d tracks", model.FormatSeconds(total), len(tracks))))
	return nil
}
