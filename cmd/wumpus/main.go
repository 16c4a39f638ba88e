// Command wumpus plays Wumpus World in the terminal, headless, or in bulk.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/config"
	"github.com/tatianab/wumpus/internal/logging"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	size    int
	density float64
	seed    uint64

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wumpus",
	Short: "Wumpus World with a belief-tracking agent",
	Long: `Explore a cave, grab the gold and climb out without meeting a pit or the Wumpus.

Run without arguments to play in the terminal. The agent can take over at any
time, or play whole episodes on its own with "wumpus auto".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyBoardFlags(cmd); err != nil {
			return err
		}

		opts := logging.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON, File: cfg.Logging.File}
		if verbose {
			opts.Level = "debug"
		}
		// the terminal UI owns the screen
		if isInteractive(cmd) && opts.File == "" {
			opts.File = ".wumpus/wumpus.log"
		}
		logger, err = logging.New(opts)
		if err != nil {
			return err
		}
		for _, w := range cfg.Warnings() {
			logger.Warn(w)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runPlay,
}

func applyBoardFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Board.Size = size
	}
	if flags.Changed("density") {
		cfg.Board.Density = density
	}
	if flags.Changed("seed") {
		cfg.Board.Seed = seed
	}
	return cfg.Validate()
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Name() == "wumpus" || cmd.Name() == "play"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&size, "size", 0, "Board edge length")
	rootCmd.PersistentFlags().Float64Var(&density, "density", 0, "Pit probability per square")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Board seed (0 picks a fresh one)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(autoCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(transcriptsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
