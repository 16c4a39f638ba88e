package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tatianab/wumpus/internal/agent"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scripted struct {
	actions []models.Action
	err     error
}

func (p *scripted) Name() string { return "scripted" }

func (p *scripted) Choose(ctx context.Context, _ agent.Beliefs, _ models.WorldState) (models.Action, error) {
	if p.err != nil {
		return 0, p.err
	}
	if len(p.actions) == 0 {
		return models.TurnLeft, nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func newEpisode(t *testing.T, seed uint64) *engine.Episode {
	t.Helper()
	ep, err := engine.NewEngine(nil).NewEpisode(seed, 4, 0.2)
	require.NoError(t, err)
	return ep
}

func TestRunStopsOnGameOver(t *testing.T) {
	ep := newEpisode(t, 1)
	var seen []Step
	r := &Runner{
		Player:    &scripted{actions: []models.Action{models.TurnLeft, models.Climb, models.MoveForward}},
		Observers: []Observer{ObserverFunc(func(s Step) error { seen = append(seen, s); return nil })},
	}

	res, err := r.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, StopGameOver, res.Reason)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, models.StatusEscaped, res.Final.Status)
	assert.Equal(t, ep.State, res.Final)
	require.Len(t, seen, 2)
	assert.Equal(t, models.Climb, seen[1].Action)
	assert.Equal(t, ep.ID, seen[1].EpisodeID)
}

func TestRunStepLimit(t *testing.T) {
	ep := newEpisode(t, 2)
	r := &Runner{Player: &scripted{}, MaxSteps: 7}
	res, err := r.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, StopStepLimit, res.Reason)
	assert.Equal(t, 7, res.Steps)
	assert.Equal(t, 7, res.Final.Turn)
}

func TestRunCancelledWhileWaitingForTick(t *testing.T) {
	ep := newEpisode(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r := &Runner{Player: &scripted{}, Tick: time.Hour}
	res, err := r.Run(ctx, ep)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, 0, res.Steps)
}

func TestRunTicks(t *testing.T) {
	ep := newEpisode(t, 4)
	r := &Runner{Player: &scripted{}, Tick: time.Millisecond, MaxSteps: 3}
	res, err := r.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Steps)
}

func TestRunPlayerAndObserverErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := (&Runner{Player: &scripted{err: boom}}).Run(context.Background(), newEpisode(t, 5))
	assert.ErrorIs(t, err, boom)

	r := &Runner{
		Player:    &scripted{},
		Observers: []Observer{ObserverFunc(func(Step) error { return boom })},
	}
	res, err := r.Run(context.Background(), newEpisode(t, 6))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Steps)
}

func TestHeuristicRunIsReproducible(t *testing.T) {
	play := func() Result {
		ep := newEpisode(t, 77)
		r := &Runner{Player: Heuristic{Rand: ep.Rand}, MaxSteps: 300}
		res, err := r.Run(context.Background(), ep)
		require.NoError(t, err)
		return res
	}
	a, b := play(), play()
	assert.Equal(t, a.Final.Log, b.Final.Log)
	assert.Equal(t, a.Final.Score, b.Final.Score)
}
