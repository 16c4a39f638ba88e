// Package bench plays many seeded episodes in parallel with the heuristic
// player and aggregates the outcomes.
package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/logging"
	"github.com/tatianab/wumpus/internal/models"
	"github.com/tatianab/wumpus/internal/results"
)

// DefaultMaxSteps caps each episode when Options.MaxSteps is not set.
const DefaultMaxSteps = 500

type Options struct {
	Episodes int
	// Workers caps concurrent episodes. 0 means GOMAXPROCS.
	Workers  int
	BaseSeed uint64
	Size     int
	Density  float64
	// MaxSteps caps each episode. 0 means DefaultMaxSteps; a bench
	// episode is never unbounded.
	MaxSteps int
	// Store, when set, gets one row per finished episode.
	Store  *results.Store
	Logger *zap.Logger
}

// Outcome is the result of one benchmark episode.
type Outcome struct {
	EpisodeID string
	Seed      uint64
	Status    models.Status
	Score     int
	Turns     int
	HasGold   bool
	Reason    driver.StopReason
}

// Run plays opts.Episodes episodes with seeds BaseSeed, BaseSeed+1, ...
// Outcomes come back in seed order. The first error cancels the rest.
func Run(ctx context.Context, opts Options) ([]Outcome, error) {
	if opts.Episodes <= 0 {
		return nil, errors.New("episodes must be positive")
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := logging.OrNop(opts.Logger)
	eng := engine.NewEngine(logger)

	out := make([]Outcome, opts.Episodes)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	start := time.Now()
	for i := range opts.Episodes {
		seed := opts.BaseSeed + uint64(i)
		eg.Go(func() error {
			o, err := runOne(egCtx, eng, seed, opts, logger)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			out[i] = o
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logger.Info("bench finished",
		zap.Int("episodes", opts.Episodes),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func runOne(ctx context.Context, eng *engine.Engine, seed uint64, opts Options, logger *zap.Logger) (Outcome, error) {
	ep, err := eng.NewEpisode(seed, opts.Size, opts.Density)
	if err != nil {
		return Outcome{}, err
	}
	r := &driver.Runner{
		Engine:   eng,
		Player:   driver.Heuristic{Rand: ep.Rand},
		MaxSteps: opts.MaxSteps,
		Logger:   logger,
	}
	res, err := r.Run(ctx, ep)
	if err != nil {
		return Outcome{}, err
	}

	o := Outcome{
		EpisodeID: ep.ID,
		Seed:      seed,
		Status:    res.Final.Status,
		Score:     res.Final.Score,
		Turns:     res.Final.Turn,
		HasGold:   res.Final.HasGold,
		Reason:    res.Reason,
	}
	if opts.Store != nil {
		err := opts.Store.Record(ctx, results.Episode{
			ID:      o.EpisodeID,
			Seed:    seed,
			Size:    opts.Size,
			Density: opts.Density,
			Player:  r.Player.Name(),
			Status:  o.Status,
			Score:   o.Score,
			Turns:   o.Turns,
			HasGold: o.HasGold,
		})
		if err != nil {
			return Outcome{}, err
		}
	}
	return o, nil
}

// Summarize computes the same aggregates as results.Store.Summary.
func Summarize(outcomes []Outcome) results.Summary {
	var sum results.Summary
	total := 0
	for i, o := range outcomes {
		sum.Episodes++
		total += o.Score
		if i == 0 || o.Score > sum.BestScore {
			sum.BestScore = o.Score
		}
		switch {
		case o.Status == models.StatusWon:
			sum.Wins++
		case o.Status == models.StatusEscaped:
			sum.Escapes++
		case o.Status.Died():
			sum.Deaths++
		}
	}
	if sum.Episodes > 0 {
		sum.MeanScore = float64(total) / float64(sum.Episodes)
	}
	return sum
}
