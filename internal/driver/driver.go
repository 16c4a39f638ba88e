// Package driver runs episodes on behalf of the simulation core: decide,
// execute, update beliefs, repeat until the episode ends.
package driver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/agent"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/logging"
	"github.com/tatianab/wumpus/internal/models"
)

// Player picks the next action for an episode.
type Player interface {
	Name() string
	Choose(ctx context.Context, b agent.Beliefs, s models.WorldState) (models.Action, error)
}

// Heuristic plays the rule-based policy from the agent package.
type Heuristic struct {
	Rand *rand.Rand
}

func (Heuristic) Name() string { return "heuristic" }

func (h Heuristic) Choose(_ context.Context, b agent.Beliefs, s models.WorldState) (models.Action, error) {
	return agent.Choose(b, s, h.Rand), nil
}

// Step is what observers see after every transition.
type Step struct {
	EpisodeID string
	Action    models.Action
	State     models.WorldState
	Beliefs   agent.Beliefs
}

// Observer receives every step in order. An error stops the run.
type Observer interface {
	Observe(Step) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Step) error

func (f ObserverFunc) Observe(s Step) error { return f(s) }

// StopReason tells why Run returned.
type StopReason string

const (
	StopGameOver  StopReason = "game_over"
	StopStepLimit StopReason = "step_limit"
	StopCancelled StopReason = "cancelled"
)

// Result is the outcome of Run.
type Result struct {
	Final   models.WorldState
	Beliefs agent.Beliefs
	Steps   int
	Reason  StopReason
}

// Runner schedules decisions for one episode at a time. Tick 0 runs as fast
// as the player answers.
type Runner struct {
	Engine *engine.Engine
	Player Player
	Tick   time.Duration
	// MaxSteps caps the number of actions. 0 means no cap: only game over
	// or ctx ends the run, and the heuristic can turn in place indefinitely
	// while frontier squares remain.
	MaxSteps  int
	Observers []Observer
	Logger    *zap.Logger
}

// Run plays ep until it ends, the step limit is hit, or ctx is cancelled.
// ep.State always holds the latest snapshot.
func (r *Runner) Run(ctx context.Context, ep *engine.Episode) (Result, error) {
	logger := logging.OrNop(r.Logger).With(zap.String("episode", ep.ID), zap.String("player", r.Player.Name()))
	eng := r.Engine
	if eng == nil {
		eng = engine.NewEngine(logger)
	}

	beliefs := agent.Update(agent.NewBeliefs(ep.State.Size()), ep.State)
	res := Result{Beliefs: beliefs}

	var tick <-chan time.Time
	if r.Tick > 0 {
		t := time.NewTicker(r.Tick)
		defer t.Stop()
		tick = t.C
	}

	for {
		res.Final = ep.State
		res.Beliefs = beliefs
		if ep.State.GameOver {
			res.Reason = StopGameOver
			return res, nil
		}
		if r.MaxSteps > 0 && res.Steps >= r.MaxSteps {
			res.Reason = StopStepLimit
			logger.Info("step limit reached", zap.Int("steps", res.Steps))
			return res, nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				res.Reason = StopCancelled
				return res, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			res.Reason = StopCancelled
			return res, err
		}

		action, err := r.Player.Choose(ctx, beliefs, ep.State)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.Reason = StopCancelled
			}
			return res, fmt.Errorf("choose action at turn %d: %w", ep.State.Turn, err)
		}

		state := eng.Step(ep, action)
		beliefs = agent.Update(beliefs, state)
		res.Steps++

		step := Step{EpisodeID: ep.ID, Action: action, State: state, Beliefs: beliefs}
		for _, o := range r.Observers {
			if err := o.Observe(step); err != nil {
				res.Final = state
				res.Beliefs = beliefs
				return res, fmt.Errorf("observe turn %d: %w", state.Turn, err)
			}
		}
	}
}
