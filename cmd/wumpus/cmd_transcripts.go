package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tatianab/wumpus/internal/models"
)

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "List saved episode transcripts",
	Long: `List and inspect saved transcripts.

Subcommands:
  list   - List all saved transcripts
  show   - Print one transcript`,
	RunE: runTranscriptsList,
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved transcripts",
	RunE:  runTranscriptsList,
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <episode-id>",
	Short: "Print one transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscriptsShow,
}

func runTranscriptsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ids, err := models.ListTranscripts(cfg.Storage.TranscriptsDir)
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No saved transcripts found.")
		return nil
	}

	fmt.Fprintln(out, "Saved transcripts")
	fmt.Fprintln(out, strings.Repeat("─", 50))
	for i, id := range ids {
		fmt.Fprintf(out, "  %d. %s\n", i+1, id)
	}
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "Total: %d transcripts\n", len(ids))
	return nil
}

func runTranscriptsShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	t, err := models.LoadTranscript(cfg.Storage.TranscriptsDir, args[0])
	if err != nil {
		return fmt.Errorf("transcript '%s' not found: %w", args[0], err)
	}

	fmt.Fprintf(out, "Episode %s\n", t.ID)
	fmt.Fprintf(out, "Seed %d, %dx%d, density %.2f, player %s\n", t.Seed, t.Size, t.Size, t.Density, t.Player)
	fmt.Fprintf(out, "%s with score %d after %d turns\n\n", t.Status, t.Score, t.Turns)
	for _, row := range t.Board {
		fmt.Fprintf(out, "  %s\n", row)
	}
	fmt.Fprintln(out)
	for _, line := range t.Log {
		fmt.Fprintf(out, "- %s\n", line)
	}
	return nil
}

func init() {
	transcriptsCmd.AddCommand(transcriptsListCmd, transcriptsShowCmd)
}
