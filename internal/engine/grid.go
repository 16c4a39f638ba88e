package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tatianab/wumpus/internal/models"
)

var (
	ErrInvalidSize    = errors.New("board size must be at least 2")
	ErrInvalidDensity = errors.New("density must be strictly between 0 and 1")
	ErrGridSaturated  = errors.New("no empty cell left to place content")
)

// safeStart lists the cells that never receive a pit.
var safeStart = []models.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

// CreateGrid lays out a fresh size×size board: pits with probability density
// everywhere except the start and its two neighbours, then one Wumpus and one
// gold on distinct empty cells other than the start.
func CreateGrid(size int, density float64, rng *rand.Rand) (models.Grid, error) {
	if size < 2 {
		return models.Grid{}, fmt.Errorf("create grid %d: %w", size, ErrInvalidSize)
	}
	if !(density > 0 && density < 1) {
		return models.Grid{}, fmt.Errorf("create grid with density %v: %w", density, ErrInvalidDensity)
	}

	g := models.NewGrid(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := models.Position{X: x, Y: y}
			if isSafeStart(p) {
				continue
			}
			if rng.Float64() < density {
				g.Set(p, models.Pit)
			}
		}
	}

	if err := place(g, models.Wumpus, rng); err != nil {
		return models.Grid{}, err
	}
	if err := place(g, models.Gold, rng); err != nil {
		return models.Grid{}, err
	}
	return g, nil
}

func isSafeStart(p models.Position) bool {
	for _, s := range safeStart {
		if p == s {
			return true
		}
	}
	return false
}

// place puts c on a cell drawn uniformly from the empty cells other than the
// origin. It fails only when there is no such cell.
func place(g models.Grid, c models.Cell, rng *rand.Rand) error {
	free := 0
	for i, v := range g.Cells {
		if i != 0 && v == models.Empty {
			free++
		}
	}
	if free == 0 {
		return fmt.Errorf("place %s: %w", c, ErrGridSaturated)
	}

	k := rng.IntN(free)
	for i, v := range g.Cells {
		if i == 0 || v != models.Empty {
			continue
		}
		if k == 0 {
			g.Cells[i] = c
			return nil
		}
		k--
	}
	return fmt.Errorf("place %s: %w", c, ErrGridSaturated)
}
