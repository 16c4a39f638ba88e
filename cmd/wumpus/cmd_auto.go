package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/replay"
)

var (
	autoServe    bool
	autoNoRecord bool
	autoNoReplay bool
	autoQuiet    bool
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Let the agent play one episode headless",
	Long: `Plays one episode with the configured player and prints every step.

The episode is saved as a transcript and a results row, and its steps are
written to a compressed replay log, unless disabled by flags.`,
	Args: cobra.NoArgs,
	RunE: runAuto,
}

func runAuto(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	eng := engine.NewEngine(logger)
	ep, err := eng.NewEpisode(episodeSeed(), cfg.Board.Size, cfg.Board.Density)
	if err != nil {
		return err
	}
	player, release, err := newPlayer(ctx, ep)
	if err != nil {
		return err
	}
	defer release()

	r := &driver.Runner{
		Engine:   eng,
		Player:   player,
		MaxSteps: cfg.Agent.MaxSteps,
		Logger:   logger,
	}
	if !autoQuiet {
		r.Observers = append(r.Observers, driver.ObserverFunc(func(s driver.Step) error {
			printStep(out, s.State.Turn, s.Action.String(), s.State.Position.String(), s.State.Score, s.State.Message)
			return nil
		}))
	}

	var (
		replayPath string
		replayLog  *replay.Writer
	)
	if !autoNoReplay && cfg.Storage.ReplayDir != "" {
		replayPath = replay.Path(cfg.Storage.ReplayDir, ep.ID)
		replayLog, err = replay.Create(replayPath)
		if err != nil {
			return fmt.Errorf("create replay: %w", err)
		}
		// no-op once finishReplay has closed it
		defer replayLog.Close()
		r.Observers = append(r.Observers, replayLog)
	}

	if autoServe {
		hub, stopServe, err := startSpectator()
		if err != nil {
			return err
		}
		defer stopServe()
		r.Observers = append(r.Observers, hub.Observer(false))
		// spectators need time to follow along
		r.Tick = cfg.Agent.Tick
	}

	fmt.Fprintf(out, "Episode %s  seed %d  %dx%d  density %.2f  player %s\n\n",
		ep.ID, ep.Seed, cfg.Board.Size, cfg.Board.Size, cfg.Board.Density, player.Name())
	res, runErr := r.Run(ctx, ep)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Fprintf(out, "\n%s after %d steps (%s), score %d\n", res.Final.Status, res.Steps, res.Reason, res.Final.Score)
	fmt.Fprintln(out, "\nBoard:")
	for _, row := range ep.Board.Rows() {
		fmt.Fprintf(out, "  %s\n", row)
	}
	if replayLog != nil {
		if err := finishReplay(out, replayLog, replayPath); err != nil {
			return err
		}
	}

	if !autoNoRecord {
		if err := recordEpisode(context.WithoutCancel(ctx), ep, player.Name()); err != nil {
			logger.Error("failed to record episode", zap.Error(err))
			return err
		}
	}
	return nil
}

// finishReplay flushes the replay log and reports where it went. A replay
// that failed to flush is not reported as saved.
func finishReplay(out io.Writer, w io.Closer, path string) error {
	if err := w.Close(); err != nil {
		return fmt.Errorf("close replay %s: %w", path, err)
	}
	fmt.Fprintf(out, "\nReplay: %s\n", path)
	return nil
}

func printStep(out io.Writer, turn int, action, pos string, score int, msg string) {
	fmt.Fprintf(out, "%4d  %-12s %-7s %6d  %s\n", turn, action, pos, score, msg)
}

func init() {
	autoCmd.Flags().BoolVar(&autoServe, "serve", false, "Stream frames to spectators, pacing steps by agent.tick")
	autoCmd.Flags().BoolVar(&autoNoRecord, "no-record", false, "Skip the transcript and results row")
	autoCmd.Flags().BoolVar(&autoNoReplay, "no-replay", false, "Skip the replay log")
	autoCmd.Flags().BoolVarP(&autoQuiet, "quiet", "q", false, "Only print the outcome")
}
