package agent

import (
	"math/rand/v2"

	"github.com/tatianab/wumpus/internal/models"
)

// Choose picks the next action. Rules are tried in order and the first that
// applies wins:
//
//  1. at the entrance holding the gold: climb
//  2. glitter: grab
//  3. holding the gold: head for (0,0), x before y
//  4. an unvisited safe square exists: head for the first one
//  5. only frontier squares left: turn left or right at random
//  6. stench and a live Wumpus: shoot
//  7. otherwise move forward 60%, turn left 20%, turn right 20%
//
// Heading somewhere costs one decision per rotation, so turning around takes
// two calls. rng may be nil, in which case the global source is used.
func Choose(b Beliefs, s models.WorldState, rng *rand.Rand) models.Action {
	pos := s.Position

	if s.HasGold && pos == models.Origin {
		return models.Climb
	}
	if s.Percept.Glitter {
		return models.Grab
	}
	if s.HasGold {
		if a, ok := navigate(pos, s.Facing, models.Origin); ok {
			return a
		}
	}
	if target, ok := b.UnvisitedSafe.First(); ok {
		if a, ok := navigate(pos, s.Facing, target); ok {
			return a
		}
	}
	if b.Frontier.Len() > 0 {
		if intN(rng, 2) == 0 {
			return models.TurnLeft
		}
		return models.TurnRight
	}
	if s.Percept.Stench && s.WumpusAlive {
		return models.Shoot
	}

	switch r := float(rng); {
	case r < 0.6:
		return models.MoveForward
	case r < 0.8:
		return models.TurnLeft
	default:
		return models.TurnRight
	}
}

// navigate returns the single action that brings the player closer to facing
// or reaching to, settling x before y. It reports false when already there.
func navigate(from models.Position, facing models.Direction, to models.Position) (models.Action, bool) {
	var want models.Direction
	switch {
	case to.X > from.X:
		want = models.Right
	case to.X < from.X:
		want = models.Left
	case to.Y > from.Y:
		want = models.Down
	case to.Y < from.Y:
		want = models.Up
	default:
		return 0, false
	}
	return face(facing, want), true
}

func face(facing, want models.Direction) models.Action {
	switch want {
	case facing:
		return models.MoveForward
	case facing.Right():
		return models.TurnRight
	case facing.Left():
		return models.TurnLeft
	}
	// turning around
	if want == models.Left || want == models.Up {
		return models.TurnLeft
	}
	return models.TurnRight
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

func float(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}
