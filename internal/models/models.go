package models

import (
	"fmt"
	"strings"
)

// Position is a cell coordinate. X grows rightward, Y grows downward.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Origin is the entrance and the only cell the player can climb out from.
var Origin = Position{}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Key is the "x,y" form used when listing belief sets.
func (p Position) Key() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// In reports whether p lies on a size×size board.
func (p Position) In(size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

// Step returns the cell one step away in direction d.
func (p Position) Step(d Direction) Position {
	switch d {
	case Up:
		return Position{p.X, p.Y - 1}
	case Right:
		return Position{p.X + 1, p.Y}
	case Down:
		return Position{p.X, p.Y + 1}
	case Left:
		return Position{p.X - 1, p.Y}
	}
	return p
}

// Neighbors returns the in-bounds orthogonal neighbours in the order
// left, right, up, down.
func (p Position) Neighbors(size int) []Position {
	out := make([]Position, 0, 4)
	for _, q := range []Position{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}} {
		if q.In(size) {
			out = append(out, q)
		}
	}
	return out
}

// Direction is the way the player faces.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

var directionNames = [...]string{"up", "right", "down", "left"}

func (d Direction) String() string {
	if d < Up || d > Left {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Left is d rotated one step counter-clockwise.
func (d Direction) Left() Direction { return (d + 3) % 4 }

// Right is d rotated one step clockwise.
func (d Direction) Right() Direction { return (d + 1) % 4 }

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	for i, n := range directionNames {
		if n == string(b) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", b)
}

// Cell is the content of a single square.
type Cell int

const (
	Empty Cell = iota
	Pit
	Wumpus
	Gold
)

var cellNames = [...]string{"empty", "pit", "wumpus", "gold"}

func (c Cell) String() string {
	if c < Empty || c > Gold {
		return fmt.Sprintf("Cell(%d)", int(c))
	}
	return cellNames[c]
}

func (c Cell) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Cell) UnmarshalText(b []byte) error {
	for i, n := range cellNames {
		if n == string(b) {
			*c = Cell(i)
			return nil
		}
	}
	return fmt.Errorf("unknown cell %q", b)
}

// Grid is a square board stored row-major.
type Grid struct {
	Size  int    `yaml:"size" json:"size"`
	Cells []Cell `yaml:"cells" json:"cells"`
}

// NewGrid returns an all-empty size×size grid.
func NewGrid(size int) Grid {
	return Grid{Size: size, Cells: make([]Cell, size*size)}
}

// At returns the content at p, or Empty when p is off the board.
func (g Grid) At(p Position) Cell {
	if !p.In(g.Size) {
		return Empty
	}
	return g.Cells[p.Y*g.Size+p.X]
}

// Set writes c at p. Off-board positions are ignored.
func (g Grid) Set(p Position, c Cell) {
	if p.In(g.Size) {
		g.Cells[p.Y*g.Size+p.X] = c
	}
}

// Find returns the first position holding c in row-major order.
func (g Grid) Find(c Cell) (Position, bool) {
	for i, v := range g.Cells {
		if v == c {
			return Position{i % g.Size, i / g.Size}, true
		}
	}
	return Position{}, false
}

func (g Grid) Clone() Grid {
	return Grid{Size: g.Size, Cells: append([]Cell(nil), g.Cells...)}
}

// Rows renders the grid one line per row, used by transcripts.
func (g Grid) Rows() []string {
	rows := make([]string, g.Size)
	for y := 0; y < g.Size; y++ {
		var sb strings.Builder
		for x := 0; x < g.Size; x++ {
			sb.WriteByte(cellGlyph[g.At(Position{x, y})])
		}
		rows[y] = sb.String()
	}
	return rows
}

var cellGlyph = map[Cell]byte{Empty: '.', Pit: 'P', Wumpus: 'W', Gold: 'G'}

// Percept is what the player senses in its current square.
type Percept struct {
	Stench  bool `yaml:"stench" json:"stench"`
	Breeze  bool `yaml:"breeze" json:"breeze"`
	Glitter bool `yaml:"glitter" json:"glitter"`
	Bump    bool `yaml:"bump" json:"bump"`
	Scream  bool `yaml:"scream" json:"scream"`
}

// Names lists the active percepts in a fixed order.
func (p Percept) Names() []string {
	var out []string
	if p.Stench {
		out = append(out, "stench")
	}
	if p.Breeze {
		out = append(out, "breeze")
	}
	if p.Glitter {
		out = append(out, "glitter")
	}
	if p.Bump {
		out = append(out, "bump")
	}
	if p.Scream {
		out = append(out, "scream")
	}
	return out
}

// Action is a player command.
type Action int

const (
	MoveForward Action = iota
	TurnLeft
	TurnRight
	Grab
	Shoot
	Climb
)

// Actions lists every legal action.
var Actions = []Action{MoveForward, TurnLeft, TurnRight, Grab, Shoot, Climb}

var actionNames = [...]string{"moveForward", "turnLeft", "turnRight", "grab", "shoot", "climb"}

func (a Action) String() string {
	if a < MoveForward || a > Climb {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// Valid reports whether a is one of the six actions.
func (a Action) Valid() bool { return a >= MoveForward && a <= Climb }

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAction accepts an action name in any case, with or without the
// camel-case hump ("moveForward", "move_forward", "forward").
func ParseAction(s string) (Action, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "moveforward", "forward", "move":
		return MoveForward, nil
	case "turnleft", "left":
		return TurnLeft, nil
	case "turnright", "right":
		return TurnRight, nil
	case "grab":
		return Grab, nil
	case "shoot":
		return Shoot, nil
	case "climb":
		return Climb, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Status says how an episode stands.
type Status string

const (
	StatusPlaying Status = "PLAYING"
	StatusWon     Status = "WON"
	StatusEscaped Status = "ESCAPED"
	StatusEaten   Status = "EATEN"
	StatusFell    Status = "FELL"
)

// Died reports whether the episode ended in death.
func (s Status) Died() bool { return s == StatusEaten || s == StatusFell }

// WorldState is one immutable snapshot of an episode. Transitions never
// modify a snapshot in place; they return a fresh one.
type WorldState struct {
	Grid        Grid      `yaml:"grid" json:"grid"`
	Position    Position  `yaml:"position" json:"position"`
	Facing      Direction `yaml:"facing" json:"facing"`
	WumpusAlive bool      `yaml:"wumpus_alive" json:"wumpus_alive"`
	HasGold     bool      `yaml:"has_gold" json:"has_gold"`
	GameOver    bool      `yaml:"game_over" json:"game_over"`
	Status      Status    `yaml:"status" json:"status"`
	Score       int       `yaml:"score" json:"score"`
	Turn        int       `yaml:"turn" json:"turn"`
	Percept     Percept   `yaml:"percept" json:"percept"`
	Visited     []bool    `yaml:"visited" json:"visited"`
	Message     string    `yaml:"message" json:"message"`
	Log         []string  `yaml:"log" json:"log"`
}

// Size is the board edge length.
func (s WorldState) Size() int { return s.Grid.Size }

// WasVisited reports whether p has been marked visited.
func (s WorldState) WasVisited(p Position) bool {
	if !p.In(s.Grid.Size) || len(s.Visited) != s.Grid.Size*s.Grid.Size {
		return false
	}
	return s.Visited[p.Y*s.Grid.Size+p.X]
}

// Clone deep-copies every mutable field.
func (s WorldState) Clone() WorldState {
	s.Grid = s.Grid.Clone()
	s.Visited = append([]bool(nil), s.Visited...)
	s.Log = append([]string(nil), s.Log...)
	return s
}
