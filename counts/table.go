// Package counts implements the expected sufficient statistics of one
// expectation pass over a corpus.
package counts

import "github.com/neurlang/hmmgrad/multinomial"

// Table holds the expected counts for the three multinomial families of an
// HMM. A pass owns exactly one Table at a time: it is cleared at the start of
// the pass and written only by that pass.
type Table struct {
	Initial     *multinomial.Table // 1 x states
	Transition  *multinomial.Table // states x states
	Observation *multinomial.Table // states x vocabulary
}

// Like creates an empty count table shaped like the probability tables.
func Like(initial, transition, observation *multinomial.Table) *Table {
	return &Table{
		Initial:     initial.NewLike(),
		Transition:  transition.NewLike(),
		Observation: observation.NewLike(),
	}
}

// NewLike returns an empty table with the same shape, used as a per-shard
// accumulator.
func (t *Table) NewLike() *Table {
	return Like(t.Initial, t.Transition, t.Observation)
}

// Clear resets every expected count to zero.
func (t *Table) Clear() {
	t.Initial.Clear()
	t.Transition.Clear()
	t.Observation.Clear()
}

// Add merges the counts of other into t.
func (t *Table) Add(other *Table) {
	t.Initial.AddTable(other.Initial)
	t.Transition.AddTable(other.Transition)
	t.Observation.AddTable(other.Observation)
}

// Total returns the initial-state mass, which equals the number of non-empty
// sentences accumulated.
func (t *Table) Total() float64 {
	return t.Initial.RowSum(0)
}
