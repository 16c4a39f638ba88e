package agent

import (
	"fmt"
	"strings"

	"github.com/tatianab/wumpus/internal/models"
)

// Explain describes what the agent perceives, knows and is after. It is for
// display only; Choose never reads it.
func Explain(b Beliefs, s models.WorldState) string {
	var sb strings.Builder
	sb.WriteString("Agent's reasoning:\n")
	fmt.Fprintf(&sb, "I am at position %s, facing %s.\n", s.Position, s.Facing)

	sb.WriteString("I perceive: ")
	if names := s.Percept.Names(); len(names) > 0 {
		sb.WriteString(strings.Join(names, ", "))
	} else {
		sb.WriteString("nothing unusual")
	}
	sb.WriteString(".\n")

	fmt.Fprintf(&sb, "I know %d safe squares and %d are unvisited.\n", b.Safe.Len(), b.UnvisitedSafe.Len())
	fmt.Fprintf(&sb, "There are %d frontier squares I'm uncertain about.\n", b.Frontier.Len())
	if d := b.Dangerous.Len(); d > 0 {
		fmt.Fprintf(&sb, "I know of %d dangerous squares.\n", d)
	}
	if b.WumpusKnown {
		fmt.Fprintf(&sb, "I believe the Wumpus is at %s.\n", b.WumpusAt)
	}

	switch {
	case s.GameOver:
		fmt.Fprintf(&sb, "The episode is over (%s).\n", s.Status)
	case s.HasGold:
		sb.WriteString("I have the gold! My goal is to return to the exit at (0,0).\n")
	case s.Percept.Glitter:
		sb.WriteString("I see the gold! I should grab it.\n")
	default:
		sb.WriteString("I'm searching for the gold while avoiding dangers.\n")
	}
	return sb.String()
}
