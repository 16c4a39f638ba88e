package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tatianab/wumpus/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Print a recorded replay log",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	recs, err := replay.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "Replay is empty.")
		return nil
	}

	fmt.Fprintf(out, "Episode %s, %d steps\n\n", recs[0].EpisodeID, len(recs))
	for _, r := range recs {
		line := r.Message
		if names := r.Percept.Names(); len(names) > 0 {
			line += " [" + strings.Join(names, ", ") + "]"
		}
		printStep(out, r.Turn, r.Action.String(), r.Position.String(), r.Score, line)
	}
	last := recs[len(recs)-1]
	fmt.Fprintf(out, "\nFinal: %s, score %d\n", last.Status, last.Score)
	return nil
}
