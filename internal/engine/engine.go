package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/models"
)

// Score deltas.
const (
	MoveCost    = -1
	ShootCost   = -10
	DeathCost   = -1000
	GoldReward  = 1000
	ClimbReward = 500
)

const (
	msgWelcome      = "You entered the Wumpus World. Be careful!"
	msgStarted      = "Game started. You are at position (0,0)"
	msgBump         = "Bump! You hit a wall."
	msgEaten        = "You were eaten by the Wumpus! Game over."
	msgFell         = "You fell into a pit! Game over."
	msgGrabbed      = "You grabbed the gold!"
	msgNoGold       = "There's no gold here to grab."
	msgAlreadyDead  = "You've already killed the Wumpus."
	msgScream       = "You hear a scream! You killed the Wumpus!"
	msgMissed       = "Your arrow missed the Wumpus."
	msgWon          = "Congratulations! You escaped with the gold and won!"
	msgEscaped      = "You climbed out without the gold. Better luck next time!"
	msgClimbOrigin  = "You can only climb out from the starting position (0,0)."
	msgMovedFormat  = "Moved to position (%d,%d)."
	msgTurnedFormat = "Turned %s. Now facing %s."
)

// NewRand returns the deterministic random source used for an episode seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewEpisode generates a board and returns the opening snapshot.
func NewEpisode(size int, density float64, rng *rand.Rand) (models.WorldState, error) {
	g, err := CreateGrid(size, density, rng)
	if err != nil {
		return models.WorldState{}, err
	}
	return Start(g), nil
}

// Start returns the opening snapshot for an existing board. The board is
// copied.
func Start(g models.Grid) models.WorldState {
	g = g.Clone()
	return models.WorldState{
		Grid:        g,
		Position:    models.Origin,
		Facing:      models.Right,
		WumpusAlive: true,
		Status:      models.StatusPlaying,
		Percept:     ComputePercept(g, models.Origin),
		Visited:     make([]bool, g.Size*g.Size),
		Message:     msgWelcome,
		Log:         []string{msgStarted},
	}
}

// Apply executes one action and returns the next snapshot. s is left
// untouched. A finished episode, or an action outside the six known ones,
// yields s unchanged.
func Apply(s models.WorldState, a models.Action) models.WorldState {
	if s.GameOver || !a.Valid() {
		return s
	}

	n := s.Clone()
	n.Turn++
	markVisited(&n, s.Position)
	// bump and scream last one transition
	n.Percept = ComputePercept(n.Grid, n.Position)

	switch a {
	case models.MoveForward:
		moveForward(&n)
	case models.TurnLeft:
		n.Facing = n.Facing.Left()
		say(&n, fmt.Sprintf(msgTurnedFormat, "left", n.Facing))
	case models.TurnRight:
		n.Facing = n.Facing.Right()
		say(&n, fmt.Sprintf(msgTurnedFormat, "right", n.Facing))
	case models.Grab:
		grab(&n)
	case models.Shoot:
		shoot(&n)
	case models.Climb:
		climb(&n)
	}
	return n
}

func moveForward(n *models.WorldState) {
	target := n.Position.Step(n.Facing)
	if !target.In(n.Grid.Size) {
		n.Percept.Bump = true
		say(n, msgBump)
		return
	}

	n.Position = target
	n.Percept = ComputePercept(n.Grid, target)
	n.Score += MoveCost
	markVisited(n, target)

	switch content := n.Grid.At(target); {
	case content == models.Wumpus && n.WumpusAlive:
		end(n, models.StatusEaten, DeathCost)
		say(n, msgEaten)
	case content == models.Pit:
		end(n, models.StatusFell, DeathCost)
		say(n, msgFell)
	default:
		say(n, fmt.Sprintf(msgMovedFormat, target.X, target.Y))
	}
}

func grab(n *models.WorldState) {
	if n.Grid.At(n.Position) != models.Gold {
		say(n, msgNoGold)
		return
	}
	n.Grid.Set(n.Position, models.Empty)
	n.HasGold = true
	n.Score += GoldReward
	n.Percept.Glitter = false
	say(n, msgGrabbed)
}

func shoot(n *models.WorldState) {
	if !n.WumpusAlive {
		say(n, msgAlreadyDead)
		return
	}

	n.Score += ShootCost
	for p := n.Position.Step(n.Facing); p.In(n.Grid.Size); p = p.Step(n.Facing) {
		if n.Grid.At(p) == models.Wumpus {
			n.Grid.Set(p, models.Empty)
			n.WumpusAlive = false
			n.Percept.Scream = true
			n.Percept.Stench = false
			say(n, msgScream)
			return
		}
	}
	say(n, msgMissed)
}

func climb(n *models.WorldState) {
	if n.Position != models.Origin {
		say(n, msgClimbOrigin)
		return
	}
	if n.HasGold {
		end(n, models.StatusWon, ClimbReward)
		say(n, msgWon)
		return
	}
	end(n, models.StatusEscaped, 0)
	say(n, msgEscaped)
}

func say(n *models.WorldState, msg string) {
	n.Message = msg
	n.Log = append(n.Log, msg)
}

func end(n *models.WorldState, status models.Status, delta int) {
	n.GameOver = true
	n.Status = status
	n.Score += delta
}

func markVisited(n *models.WorldState, p models.Position) {
	if p.In(n.Grid.Size) && len(n.Visited) == n.Grid.Size*n.Grid.Size {
		n.Visited[p.Y*n.Grid.Size+p.X] = true
	}
}

// Episode bundles one play-through with the seed and random source it was
// generated from.
type Episode struct {
	ID      string
	Seed    uint64
	Density float64
	Board   models.Grid
	State   models.WorldState
	Rand    *rand.Rand
}

// Engine creates episodes and advances them, logging each transition.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// NewEpisode generates a board from seed. The episode's random source keeps
// advancing after generation so decisions made with it are reproducible too.
func (e *Engine) NewEpisode(seed uint64, size int, density float64) (*Episode, error) {
	rng := NewRand(seed)
	s, err := NewEpisode(size, density, rng)
	if err != nil {
		return nil, fmt.Errorf("new episode (seed %d): %w", seed, err)
	}

	ep := &Episode{
		ID:      uuid.NewString(),
		Seed:    seed,
		Density: density,
		Board:   s.Grid.Clone(),
		State:   s,
		Rand:    rng,
	}
	e.logger.Debug("episode created",
		zap.String("episode", ep.ID),
		zap.Uint64("seed", seed),
		zap.Int("size", size),
		zap.Float64("density", density))
	return ep, nil
}

// Step applies a to the episode's current snapshot and replaces it.
func (e *Engine) Step(ep *Episode, a models.Action) models.WorldState {
	if ep.State.GameOver {
		e.logger.Debug("action ignored, episode over", zap.String("episode", ep.ID), zap.Stringer("action", a))
		return ep.State
	}

	ep.State = Apply(ep.State, a)
	e.logger.Debug("step",
		zap.String("episode", ep.ID),
		zap.Int("turn", ep.State.Turn),
		zap.Stringer("action", a),
		zap.Stringer("position", ep.State.Position),
		zap.Int("score", ep.State.Score))
	if ep.State.GameOver {
		e.logger.Info("episode over",
			zap.String("episode", ep.ID),
			zap.String("status", string(ep.State.Status)),
			zap.Int("score", ep.State.Score),
			zap.Int("turns", ep.State.Turn))
	}
	return ep.State
}
