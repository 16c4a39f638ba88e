package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tatianab/wumpus/internal/models"
)

// gridFrom builds a board from rows of '.', 'P', 'W' and 'G'.
func gridFrom(rows ...string) models.Grid {
	g := models.NewGrid(len(rows))
	for y, row := range rows {
		for x, r := range row {
			switch r {
			case 'P':
				g.Set(models.Position{X: x, Y: y}, models.Pit)
			case 'W':
				g.Set(models.Position{X: x, Y: y}, models.Wumpus)
			case 'G':
				g.Set(models.Position{X: x, Y: y}, models.Gold)
			}
		}
	}
	return g
}

func play(s models.WorldState, actions ...models.Action) models.WorldState {
	for _, a := range actions {
		s = Apply(s, a)
	}
	return s
}

func TestCreateGridInvariants(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		size := 2 + int(seed%7)
		density := 0.05 + float64(seed%9)*0.1
		g, err := CreateGrid(size, density, NewRand(seed))
		require.NoError(t, err, "seed %d", seed)

		counts := map[models.Cell]int{}
		for _, c := range g.Cells {
			counts[c]++
		}
		assert.Equal(t, 1, counts[models.Wumpus], "seed %d", seed)
		assert.Equal(t, 1, counts[models.Gold], "seed %d", seed)
		assert.Equal(t, models.Empty, g.At(models.Origin), "seed %d", seed)
		assert.NotEqual(t, models.Pit, g.At(models.Position{X: 1, Y: 0}), "seed %d", seed)
		assert.NotEqual(t, models.Pit, g.At(models.Position{X: 0, Y: 1}), "seed %d", seed)
	}
}

func TestCreateGridDeterministic(t *testing.T) {
	a, err := CreateGrid(6, 0.3, NewRand(7))
	require.NoError(t, err)
	b, err := CreateGrid(6, 0.3, NewRand(7))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestCreateGridRejectsBadInput(t *testing.T) {
	_, err := CreateGrid(1, 0.2, NewRand(1))
	assert.True(t, errors.Is(err, ErrInvalidSize))

	for _, d := range []float64{0, 1, -0.5, 1.5} {
		_, err = CreateGrid(4, d, NewRand(1))
		assert.True(t, errors.Is(err, ErrInvalidDensity), "density %v", d)
	}
}

func TestCreateGridHighDensityStillPlaces(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		g, err := CreateGrid(2, 0.999, NewRand(seed))
		require.NoError(t, err)
		_, ok := g.Find(models.Gold)
		assert.True(t, ok)
	}
}

func TestCreateGridLargeDenseBoard(t *testing.T) {
	for seed := uint64(0); seed < 5; seed++ {
		g, err := CreateGrid(300, 0.99995, NewRand(seed))
		require.NoError(t, err, "seed %d", seed)

		counts := map[models.Cell]int{}
		for _, c := range g.Cells {
			counts[c]++
		}
		assert.Equal(t, 1, counts[models.Wumpus], "seed %d", seed)
		assert.Equal(t, 1, counts[models.Gold], "seed %d", seed)
		assert.Equal(t, models.Empty, g.At(models.Origin), "seed %d", seed)
	}
}

func TestPlaceUsesOnlyFreeCell(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		g := gridFrom(
			"..P",
			"PPP",
			"PPP",
		)
		require.NoError(t, place(g, models.Wumpus, NewRand(seed)))
		assert.Equal(t, models.Wumpus, g.At(models.Position{X: 1, Y: 0}), "seed %d", seed)
		assert.Equal(t, models.Empty, g.At(models.Origin), "seed %d", seed)
	}
}

func TestPlaceSaturated(t *testing.T) {
	g := gridFrom(
		".P",
		"PP",
	)
	err := place(g, models.Wumpus, NewRand(1))
	assert.True(t, errors.Is(err, ErrGridSaturated))
}

func TestComputePerceptMatchesNeighbours(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		g, err := CreateGrid(5, 0.3, NewRand(seed))
		require.NoError(t, err)

		for y := 0; y < g.Size; y++ {
			for x := 0; x < g.Size; x++ {
				pos := models.Position{X: x, Y: y}
				var stench, breeze bool
				for _, d := range []models.Direction{models.Up, models.Right, models.Down, models.Left} {
					q := pos.Step(d)
					if !q.In(g.Size) {
						continue
					}
					stench = stench || g.At(q) == models.Wumpus
					breeze = breeze || g.At(q) == models.Pit
				}

				p := ComputePercept(g, pos)
				assert.Equal(t, g.At(pos) == models.Gold, p.Glitter, "glitter at %v seed %d", pos, seed)
				assert.Equal(t, stench, p.Stench, "stench at %v seed %d", pos, seed)
				assert.Equal(t, breeze, p.Breeze, "breeze at %v seed %d", pos, seed)
				assert.False(t, p.Bump)
				assert.False(t, p.Scream)
			}
		}
	}
}

func TestComputePerceptOffBoard(t *testing.T) {
	assert.Equal(t, models.Percept{}, ComputePercept(gridFrom("W.", ".."), models.Position{X: -1, Y: 0}))
}

func TestStartState(t *testing.T) {
	s := Start(gridFrom(
		".W..",
		"....",
		"..G.",
		"...P",
	))
	assert.Equal(t, models.Origin, s.Position)
	assert.Equal(t, models.Right, s.Facing)
	assert.True(t, s.WumpusAlive)
	assert.True(t, s.Percept.Stench)
	assert.Equal(t, models.StatusPlaying, s.Status)
	assert.Equal(t, []string{"Game started. You are at position (0,0)"}, s.Log)
	assert.Equal(t, "You entered the Wumpus World. Be careful!", s.Message)
	assert.Len(t, s.Visited, 16)
	assert.False(t, s.WasVisited(models.Origin))
}

func TestMoveForward(t *testing.T) {
	s := Start(gridFrom(
		"....",
		"....",
		"..G.",
		"W..P",
	))
	next := Apply(s, models.MoveForward)

	assert.Equal(t, models.Position{X: 1, Y: 0}, next.Position)
	assert.Equal(t, -1, next.Score)
	assert.True(t, next.WasVisited(models.Origin))
	assert.True(t, next.WasVisited(models.Position{X: 1, Y: 0}))
	assert.Equal(t, "Moved to position (1,0).", next.Message)
	assert.Equal(t, next.Message, next.Log[len(next.Log)-1])
	assert.Equal(t, 1, next.Turn)

	// the previous snapshot is not touched
	assert.Equal(t, models.Origin, s.Position)
	assert.Len(t, s.Log, 1)
	assert.False(t, s.WasVisited(models.Origin))
}

func TestBumpIsEdgeTriggered(t *testing.T) {
	s := Start(gridFrom(
		"....",
		"....",
		"..G.",
		"W..P",
	))
	s = Apply(s, models.TurnLeft)
	bumped := Apply(s, models.MoveForward)

	assert.True(t, bumped.Percept.Bump)
	assert.Equal(t, models.Origin, bumped.Position)
	assert.Equal(t, 0, bumped.Score)
	assert.Equal(t, "Bump! You hit a wall.", bumped.Message)

	after := Apply(bumped, models.TurnRight)
	assert.False(t, after.Percept.Bump)
}

func TestTurnsCostNothing(t *testing.T) {
	s := Start(gridFrom("..", "WG"))
	s = Apply(s, models.TurnLeft)
	assert.Equal(t, models.Up, s.Facing)
	assert.Equal(t, "Turned left. Now facing up.", s.Message)
	s = Apply(s, models.TurnLeft)
	s = Apply(s, models.TurnLeft)
	assert.Equal(t, models.Down, s.Facing)
	s = Apply(s, models.TurnRight)
	assert.Equal(t, models.Left, s.Facing)
	assert.Equal(t, "Turned right. Now facing left.", s.Message)
	assert.Equal(t, 0, s.Score)
}

func TestPlainMovesCostOneEach(t *testing.T) {
	s := Start(gridFrom(
		"....",
		"....",
		"....",
		"G..W",
	))
	moves := 0
	for _, a := range []models.Action{
		models.MoveForward, models.MoveForward, models.MoveForward,
		models.TurnRight, models.MoveForward, models.MoveForward,
		models.TurnRight, models.MoveForward, models.TurnLeft, models.TurnLeft,
		models.MoveForward, models.MoveForward,
	} {
		before := s
		s = Apply(s, a)
		if a == models.MoveForward && !s.Percept.Bump {
			moves++
			assert.Equal(t, 1, abs(s.Position.X-before.Position.X)+abs(s.Position.Y-before.Position.Y))
			assert.Equal(t, before.Position.Step(before.Facing), s.Position)
		}
	}
	require.False(t, s.GameOver)
	assert.Equal(t, -moves, s.Score)
}

func TestGrab(t *testing.T) {
	s := Start(gridFrom(
		".G..",
		"....",
		"....",
		"...W",
	))
	s = Apply(s, models.Grab)
	assert.Equal(t, "There's no gold here to grab.", s.Message)
	assert.Equal(t, 0, s.Score)

	s = Apply(s, models.MoveForward)
	assert.True(t, s.Percept.Glitter)
	s = Apply(s, models.Grab)
	assert.True(t, s.HasGold)
	assert.False(t, s.Percept.Glitter)
	assert.Equal(t, models.Empty, s.Grid.At(models.Position{X: 1, Y: 0}))
	assert.Equal(t, -1+1000, s.Score)
	assert.Equal(t, "You grabbed the gold!", s.Message)
}

func TestShootKillsWumpusInLine(t *testing.T) {
	s := Start(gridFrom(
		"..W.",
		"....",
		"...G",
		"....",
	))
	require.Equal(t, models.Right, s.Facing)

	s = Apply(s, models.Shoot)
	assert.True(t, s.Percept.Scream)
	assert.False(t, s.Percept.Stench)
	assert.False(t, s.WumpusAlive)
	assert.Equal(t, -10, s.Score)
	assert.Equal(t, "You hear a scream! You killed the Wumpus!", s.Message)
	_, found := s.Grid.Find(models.Wumpus)
	assert.False(t, found)

	// stench next to the old Wumpus square is gone on the next percept check
	s = Apply(s, models.MoveForward)
	assert.Equal(t, models.Position{X: 1, Y: 0}, s.Position)
	assert.False(t, s.Percept.Stench)
	assert.False(t, s.Percept.Scream)

	s = Apply(s, models.Shoot)
	assert.Equal(t, "You've already killed the Wumpus.", s.Message)
	assert.Equal(t, -11, s.Score)
}

func TestShootMiss(t *testing.T) {
	s := Start(gridFrom(
		"....",
		"W...",
		"...G",
		"....",
	))
	s = Apply(s, models.Shoot)
	assert.True(t, s.WumpusAlive)
	assert.False(t, s.Percept.Scream)
	assert.Equal(t, -10, s.Score)
	assert.Equal(t, "Your arrow missed the Wumpus.", s.Message)

	s = Apply(s, models.Shoot)
	assert.Equal(t, -20, s.Score)
}

func TestWinScenario(t *testing.T) {
	s := Start(gridFrom(
		".G..",
		"....",
		"...W",
		"....",
	))
	s = play(s,
		models.MoveForward, models.Grab,
		models.TurnLeft, models.TurnLeft, models.MoveForward,
		models.Climb,
	)
	assert.True(t, s.GameOver)
	assert.Equal(t, models.StatusWon, s.Status)
	assert.Equal(t, -2+1000+500, s.Score)
	assert.Equal(t, "Congratulations! You escaped with the gold and won!", s.Message)
}

func TestClimb(t *testing.T) {
	s := Start(gridFrom(
		"..G.",
		"....",
		"...W",
		"....",
	))
	away := Apply(Apply(s, models.MoveForward), models.Climb)
	assert.False(t, away.GameOver)
	assert.Equal(t, "You can only climb out from the starting position (0,0).", away.Message)
	assert.Equal(t, -1, away.Score)

	out := Apply(s, models.Climb)
	assert.True(t, out.GameOver)
	assert.Equal(t, models.StatusEscaped, out.Status)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, "You climbed out without the gold. Better luck next time!", out.Message)
}

func TestDeathScenarios(t *testing.T) {
	fell := Apply(Start(gridFrom(
		".P..",
		"....",
		"..G.",
		"...W",
	)), models.MoveForward)
	assert.True(t, fell.GameOver)
	assert.Equal(t, models.StatusFell, fell.Status)
	assert.Equal(t, -1-1000, fell.Score)
	assert.Equal(t, "You fell into a pit! Game over.", fell.Message)

	eaten := Apply(Start(gridFrom(
		".W..",
		"....",
		"..G.",
		"....",
	)), models.MoveForward)
	assert.True(t, eaten.GameOver)
	assert.Equal(t, models.StatusEaten, eaten.Status)
	assert.Equal(t, -1001, eaten.Score)
	assert.Equal(t, "You were eaten by the Wumpus! Game over.", eaten.Message)
}

func TestNoTransitionAfterGameOver(t *testing.T) {
	over := Apply(Start(gridFrom(
		".P..",
		"....",
		"..G.",
		"...W",
	)), models.MoveForward)
	require.True(t, over.GameOver)

	snapshot := over.Clone()
	for _, a := range append(append([]models.Action{}, models.Actions...), models.Action(42)) {
		got := Apply(over, a)
		if diff := cmp.Diff(snapshot, got); diff != "" {
			t.Errorf("Apply(%s) after game over changed state (-want +got):\n%s", a, diff)
		}
	}
}

func TestUnknownActionIsIgnored(t *testing.T) {
	s := Start(gridFrom("..", "WG"))
	assert.Empty(t, cmp.Diff(s, Apply(s, models.Action(-1))))
}

func TestRandomWalkKeepsPositionOnBoard(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		rng := NewRand(seed)
		s, err := NewEpisode(5, 0.2, rng)
		require.NoError(t, err)
		for i := 0; i < 200 && !s.GameOver; i++ {
			before := s
			s = Apply(s, models.Actions[rng.IntN(3)])
			require.True(t, s.Position.In(5))
			require.GreaterOrEqual(t, len(s.Log), len(before.Log))
			require.Equal(t, before.Log, s.Log[:len(before.Log)], "log must only grow")
			for j, v := range before.Visited {
				require.True(t, !v || s.Visited[j], "visited must never clear")
			}
		}
	}
}

func TestEngineStepLogsTermination(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	eng := NewEngine(zap.New(core))

	ep, err := eng.NewEpisode(3, 4, 0.2)
	require.NoError(t, err)
	assert.NotEmpty(t, ep.ID)
	assert.Equal(t, uint64(3), ep.Seed)
	assert.Empty(t, cmp.Diff(ep.Board, ep.State.Grid))

	again, err := eng.NewEpisode(3, 4, 0.2)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ep.Board, again.Board), "same seed, same board")

	eng.Step(ep, models.Climb)
	assert.True(t, ep.State.GameOver)
	assert.Equal(t, 1, logs.FilterMessage("episode over").Len())

	eng.Step(ep, models.MoveForward)
	assert.Equal(t, 1, logs.FilterMessage("action ignored, episode over").Len())
}

func TestEngineNewEpisodeError(t *testing.T) {
	_, err := NewEngine(nil).NewEpisode(1, 1, 0.2)
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
