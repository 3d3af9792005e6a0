package objective

import "fmt"

// Block names one of the three sub-models sharing the parameter vector.
type Block int

const (
	Initial Block = iota
	Transition
	Observation
)

// Blocks lists the sub-models in vector order.
var Blocks = [3]Block{Initial, Transition, Observation}

func (b Block) String() string {
	switch b {
	case Initial:
		return "init"
	case Transition:
		return "trans"
	case Observation:
		return "obs"
	}
	return fmt.Sprintf("block(%d)", int(b))
}

// Layout fixes where each sub-model lives inside the flat parameter and
// gradient vectors: [0, transition) initial, [transition, observation)
// transition, [observation, total) observation.
type Layout struct {
	offsets [3]int
	total   int
}

// NewLayout places three blocks of the given sizes back to back.
func NewLayout(initial, transition, observation int) (Layout, error) {
	sizes := [3]int{initial, transition, observation}
	var l Layout
	for _, b := range Blocks {
		if sizes[b] < 0 {
			return Layout{}, fmt.Errorf("%w: %s block has %d parameters", ErrInvalidLayout, b, sizes[b])
		}
		l.offsets[b] = l.total
		l.total += sizes[b]
	}
	return l, nil
}

// Offset is the first index of block b.
func (l Layout) Offset(b Block) int {
	return l.offsets[b]
}

// Range returns the half open index range [lo, hi) of block b.
func (l Layout) Range(b Block) (lo, hi int) {
	lo = l.offsets[b]
	if b == Observation {
		return lo, l.total
	}
	return lo, l.offsets[b+1]
}

// Size is the number of parameters in block b.
func (l Layout) Size(b Block) int {
	lo, hi := l.Range(b)
	return hi - lo
}

// Len is the length of the flat vectors.
func (l Layout) Len() int {
	return l.total
}

// Owner maps a flat index to its block and the index local to that block.
func (l Layout) Owner(i int) (Block, int) {
	for b := Observation; b > Initial; b-- {
		if i >= l.offsets[b] {
			return b, i - l.offsets[b]
		}
	}
	return Initial, i
}
