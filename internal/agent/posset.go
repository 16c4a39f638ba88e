package agent

import (
	"math/bits"
	"strings"

	"github.com/tatianab/wumpus/internal/models"
)

// PosSet is a fixed-size set of board positions packed one bit per cell,
// row-major. Positions outside the board are never members.
type PosSet struct {
	size  int
	words []uint64
}

func NewPosSet(size int) PosSet {
	if size < 0 {
		size = 0
	}
	return PosSet{size: size, words: make([]uint64, (size*size+63)/64)}
}

func (s PosSet) index(p models.Position) (int, uint64, bool) {
	if !p.In(s.size) {
		return 0, 0, false
	}
	i := p.Y*s.size + p.X
	return i >> 6, 1 << uint(i&63), true
}

func (s PosSet) Has(p models.Position) bool {
	w, mask, ok := s.index(p)
	return ok && s.words[w]&mask != 0
}

// Add inserts p and reports whether p is on the board.
func (s PosSet) Add(p models.Position) bool {
	w, mask, ok := s.index(p)
	if ok {
		s.words[w] |= mask
	}
	return ok
}

func (s PosSet) Remove(p models.Position) {
	if w, mask, ok := s.index(p); ok {
		s.words[w] &^= mask
	}
}

// Subtract removes every member of o from s.
func (s PosSet) Subtract(o PosSet) {
	for i := range s.words {
		if i < len(o.words) {
			s.words[i] &^= o.words[i]
		}
	}
}

func (s PosSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// First returns the lowest member in row-major order.
func (s PosSet) First() (models.Position, bool) {
	for i, w := range s.words {
		if w != 0 {
			idx := i*64 + bits.TrailingZeros64(w)
			return models.Position{X: idx % s.size, Y: idx / s.size}, true
		}
	}
	return models.Position{}, false
}

// Members lists the set in row-major order.
func (s PosSet) Members() []models.Position {
	var out []models.Position
	for i, w := range s.words {
		for w != 0 {
			idx := i*64 + bits.TrailingZeros64(w)
			out = append(out, models.Position{X: idx % s.size, Y: idx / s.size})
			w &= w - 1
		}
	}
	return out
}

// ContainsAll reports whether every member of o is in s.
func (s PosSet) ContainsAll(o PosSet) bool {
	for i, w := range o.words {
		var have uint64
		if i < len(s.words) {
			have = s.words[i]
		}
		if w&^have != 0 {
			return false
		}
	}
	return true
}

func (s PosSet) Clone() PosSet {
	return PosSet{size: s.size, words: append([]uint64(nil), s.words...)}
}

// String joins the members as "x,y" keys separated by ", ".
func (s PosSet) String() string {
	members := s.Members()
	keys := make([]string, len(members))
	for i, p := range members {
		keys[i] = p.Key()
	}
	return strings.Join(keys, ", ")
}
