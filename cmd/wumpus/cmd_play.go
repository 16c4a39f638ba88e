package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/tui"
)

var playServe bool

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play interactively in the terminal",
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	opts := tui.Options{
		Engine:  engine.NewEngine(logger),
		Size:    cfg.Board.Size,
		Density: cfg.Board.Density,
		Seed:    episodeSeed(),
		Tick:    cfg.Agent.Tick,
		Logger:  logger,
		OnFinish: func(ep *engine.Episode, player string) error {
			return recordEpisode(ctx, ep, player)
		},
	}

	// one AI per episode; the previous one is released when a new game starts
	release := func() {}
	defer func() { release() }()
	opts.NewPlayer = func(ep *engine.Episode) driver.Player {
		release()
		p, closeFn, err := newPlayer(ctx, ep)
		if err != nil {
			logger.Warn("AI player unavailable, using heuristic", zap.Error(err))
			release = func() {}
			return driver.Heuristic{Rand: ep.Rand}
		}
		release = closeFn
		return p
	}

	if playServe {
		hub, stop, err := startSpectator()
		if err != nil {
			return err
		}
		defer stop()
		opts.Observers = append(opts.Observers, hub.Observer(false))
	}

	return tui.Run(opts)
}

func init() {
	playCmd.Flags().BoolVar(&playServe, "serve", false, "Stream frames to spectators")
	rootCmd.Flags().BoolVar(&playServe, "serve", false, "Stream frames to spectators")
}
