package agent

import "github.com/tatianab/wumpus/internal/models"

// Update folds the percepts of s into b and returns the result.
//
// Squares only move toward "known". The single retraction is the remembered
// Wumpus square, which becomes safe once the Wumpus is dead. Frontier squares
// that were uncertain only because of the Wumpus are not re-examined.
//
// A state whose board size differs from b, or whose position is off the
// board, is ignored.
func Update(b Beliefs, s models.WorldState) Beliefs {
	if s.Grid.Size != b.Size || !s.Position.In(b.Size) {
		return b
	}

	n := b.Clone()
	p := s.Position
	n.Safe.Add(p)
	n.UnvisitedSafe.Remove(p)

	warned := s.Percept.Breeze || s.Percept.Stench
	for _, q := range p.Neighbors(n.Size) {
		if n.Dangerous.Has(q) {
			continue
		}
		switch {
		case !warned:
			n.Safe.Add(q)
			if !s.WasVisited(q) {
				n.UnvisitedSafe.Add(q)
			}
		case !n.Safe.Has(q):
			n.Frontier.Add(q)
		}
	}
	n.Frontier.Subtract(n.Safe)

	deduce(&n, s)

	if !s.WumpusAlive && n.WumpusKnown {
		n.Dangerous.Remove(n.WumpusAt)
		n.Safe.Add(n.WumpusAt)
		n.Frontier.Remove(n.WumpusAt)
		n.WumpusKnown = false
		n.WumpusAt = models.Position{}
	}
	return n
}

// deduce marks a square dangerous when exactly one warning is perceived and
// only one neighbour is not already known safe: the warning can only come
// from there.
func deduce(n *Beliefs, s models.WorldState) {
	if s.Percept.Stench == s.Percept.Breeze {
		return
	}

	var candidate models.Position
	open := 0
	for _, q := range s.Position.Neighbors(n.Size) {
		if !n.Safe.Has(q) {
			candidate = q
			open++
		}
	}
	if open != 1 {
		return
	}

	n.Dangerous.Add(candidate)
	n.Frontier.Remove(candidate)
	if s.Percept.Stench && s.WumpusAlive {
		n.WumpusAt = candidate
		n.WumpusKnown = true
	}
}
