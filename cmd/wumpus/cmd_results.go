package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tatianab/wumpus/internal/results"
)

var resultsLimit int

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recorded episode statistics",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func runResults(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	store, err := results.Open(cfg.Storage.ResultsDB)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer store.Close()

	sum, err := store.Summary(cmd.Context())
	if err != nil {
		return err
	}
	if sum.Episodes == 0 {
		fmt.Fprintln(out, "No episodes recorded yet.")
		return nil
	}
	printSummary(out, sum)

	recent, err := store.Recent(cmd.Context(), resultsLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nRecent episodes")
	fmt.Fprintln(out, strings.Repeat("─", 72))
	for _, e := range recent {
		fmt.Fprintf(out, "  %s  %-9s %-8s %6d  %4d turns  seed %d  %s\n",
			e.Ended.Local().Format("2006-01-02 15:04"), e.Player, e.Status, e.Score, e.Turns, e.Seed, e.ID)
	}
	return nil
}

func printSummary(out io.Writer, s results.Summary) {
	fmt.Fprintf(out, "Episodes:   %d\n", s.Episodes)
	fmt.Fprintf(out, "Won:        %d (%.1f%%)\n", s.Wins, 100*s.WinRate())
	fmt.Fprintf(out, "Escaped:    %d\n", s.Escapes)
	fmt.Fprintf(out, "Died:       %d\n", s.Deaths)
	fmt.Fprintf(out, "Mean score: %.1f\n", s.MeanScore)
	fmt.Fprintf(out, "Best score: %d\n", s.BestScore)
}

func init() {
	resultsCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 10, "Recent episodes to list")
}
