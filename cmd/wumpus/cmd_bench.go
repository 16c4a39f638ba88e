package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tatianab/wumpus/internal/bench"
	"github.com/tatianab/wumpus/internal/results"
)

var (
	benchEpisodes int
	benchWorkers  int
	benchNoRecord bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Play many seeded episodes with the heuristic agent",
	Long: `Plays --episodes episodes in parallel. Seeds run consecutively from the
configured seed, so a bench with a fixed seed is reproducible.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	opts := bench.Options{
		Episodes: benchEpisodes,
		Workers:  benchWorkers,
		BaseSeed: episodeSeed(),
		Size:     cfg.Board.Size,
		Density:  cfg.Board.Density,
		MaxSteps: cfg.Agent.MaxSteps,
		Logger:   logger,
	}
	if !benchNoRecord && cfg.Storage.ResultsDB != "" {
		store, err := results.Open(cfg.Storage.ResultsDB)
		if err != nil {
			return fmt.Errorf("open results: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	start := time.Now()
	outcomes, err := bench.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seeds %d..%d on %dx%d, density %.2f (%s)\n\n",
		opts.BaseSeed, opts.BaseSeed+uint64(opts.Episodes-1), opts.Size, opts.Size, opts.Density,
		time.Since(start).Round(time.Millisecond))
	printSummary(out, bench.Summarize(outcomes))
	return nil
}

func init() {
	benchCmd.Flags().IntVarP(&benchEpisodes, "episodes", "n", 100, "Number of episodes")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "j", 0, "Parallel episodes (default GOMAXPROCS)")
	benchCmd.Flags().BoolVar(&benchNoRecord, "no-record", false, "Do not write results rows")
}
