package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/config"
	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/llmplayer"
	"github.com/tatianab/wumpus/internal/models"
	"github.com/tatianab/wumpus/internal/results"
	"github.com/tatianab/wumpus/internal/spectator"
)

// episodeSeed returns the configured seed, or a fresh one when it is 0.
func episodeSeed() uint64 {
	if cfg.Board.Seed != 0 {
		return cfg.Board.Seed
	}
	return rand.Uint64()
}

// newPlayer returns the configured player for ep and a function that
// releases it.
func newPlayer(ctx context.Context, ep *engine.Episode) (driver.Player, func(), error) {
	heuristic := driver.Heuristic{Rand: ep.Rand}
	if cfg.Agent.Player != config.PlayerGemini {
		return heuristic, func() {}, nil
	}
	p, err := llmplayer.New(ctx, cfg.GeminiAPIKey, cfg.Agent.Model, heuristic, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

// recordEpisode writes the transcript and the results row for a finished
// or abandoned episode. Either destination is skipped when its setting is
// empty.
func recordEpisode(ctx context.Context, ep *engine.Episode, player string) error {
	var errs []error

	if dir := cfg.Storage.TranscriptsDir; dir != "" {
		t := models.NewTranscript(ep.ID, ep.Seed, ep.Density, player, ep.Board, ep.State)
		if err := t.Save(dir); err != nil {
			errs = append(errs, fmt.Errorf("save transcript: %w", err))
		} else {
			logger.Info("transcript saved", zap.String("episode", ep.ID), zap.String("dir", dir))
		}
	}

	if path := cfg.Storage.ResultsDB; path != "" {
		store, err := results.Open(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("open results: %w", err))
		} else {
			err = store.Record(ctx, results.Episode{
				ID:      ep.ID,
				Seed:    ep.Seed,
				Size:    ep.State.Size(),
				Density: ep.Density,
				Player:  player,
				Status:  ep.State.Status,
				Score:   ep.State.Score,
				Turns:   ep.State.Turn,
				HasGold: ep.State.HasGold,
			})
			if err != nil {
				errs = append(errs, err)
			}
			_ = store.Close()
		}
	}
	return errors.Join(errs...)
}

// startSpectator serves a hub on the configured address until stop is
// called.
func startSpectator() (*spectator.Hub, func(), error) {
	ln, err := net.Listen("tcp", cfg.Spectator.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("spectator listen: %w", err)
	}
	hub := spectator.NewHub(logger)
	srv := &http.Server{Handler: hub.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("spectator server failed", zap.Error(err))
		}
	}()
	logger.Info("spectator listening", zap.String("addr", ln.Addr().String()))

	stop := func() {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return hub, stop, nil
}
