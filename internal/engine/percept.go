package engine

import "github.com/tatianab/wumpus/internal/models"

// ComputePercept returns the level-triggered percepts at pos. Bump and scream
// are never set here; only a transition can raise them.
func ComputePercept(g models.Grid, pos models.Position) models.Percept {
	var p models.Percept
	if !pos.In(g.Size) {
		return p
	}

	p.Glitter = g.At(pos) == models.Gold
	for _, n := range pos.Neighbors(g.Size) {
		switch g.At(n) {
		case models.Wumpus:
			p.Stench = true
		case models.Pit:
			p.Breeze = true
		}
	}
	return p
}
