// Package agent holds the knowledge-based explorer: a belief store built from
// percepts, the rule that updates it after each step, and the greedy policy
// that picks the next action from it.
package agent

import (
	"fmt"

	"github.com/tatianab/wumpus/internal/models"
)

// Beliefs is the agent's model of the board. It is a value: Update returns a
// new one and never modifies its argument.
type Beliefs struct {
	Size          int
	Safe          PosSet
	Dangerous     PosSet
	UnvisitedSafe PosSet
	Frontier      PosSet

	// WumpusAt is only meaningful when WumpusKnown is set.
	WumpusAt    models.Position
	WumpusKnown bool
}

// NewBeliefs starts an episode knowing only that the entrance is safe.
func NewBeliefs(size int) Beliefs {
	b := Beliefs{
		Size:          size,
		Safe:          NewPosSet(size),
		Dangerous:     NewPosSet(size),
		UnvisitedSafe: NewPosSet(size),
		Frontier:      NewPosSet(size),
	}
	b.Safe.Add(models.Origin)
	b.UnvisitedSafe.Add(models.Origin)
	return b
}

func (b Beliefs) Clone() Beliefs {
	b.Safe = b.Safe.Clone()
	b.Dangerous = b.Dangerous.Clone()
	b.UnvisitedSafe = b.UnvisitedSafe.Clone()
	b.Frontier = b.Frontier.Clone()
	return b
}

// Describe lists every set's members, one set per line.
func (b Beliefs) Describe() string {
	s := fmt.Sprintf("Safe: %s\nUnvisited Safe: %s\nDangerous: %s\nFrontier: %s",
		b.Safe, b.UnvisitedSafe, b.Dangerous, b.Frontier)
	if b.WumpusKnown {
		s += "\nWumpus: " + b.WumpusAt.Key()
	}
	return s
}
