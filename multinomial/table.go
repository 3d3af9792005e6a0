// Package multinomial implements the conditional table used both for the
// probabilities of an HMM and for the expected counts collected by inference.
package multinomial

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Table holds one value per (condition, outcome) pair. Rows are conditions,
// columns are outcomes. Each row lists the outcomes available to it; values of
// unavailable outcomes stay zero.
type Table struct {
	rows      int
	cols      int
	values    []float64
	available [][]int
}

// New creates a dense table where every outcome is available in every row.
func New(rows, cols int) *Table {
	available := make([][]int, rows)
	for c := range available {
		available[c] = make([]int, cols)
		for o := range available[c] {
			available[c][o] = o
		}
	}
	return &Table{
		rows:      rows,
		cols:      cols,
		values:    make([]float64, rows*cols),
		available: available,
	}
}

// NewSparse creates a table with cols outcomes where row c may only take the
// outcomes listed in available[c].
func NewSparse(cols int, available [][]int) (*Table, error) {
	t := &Table{
		rows:      len(available),
		cols:      cols,
		values:    make([]float64, len(available)*cols),
		available: make([][]int, len(available)),
	}
	for c, row := range available {
		for _, o := range row {
			if o < 0 || o >= cols {
				return nil, fmt.Errorf("NewSparse: outcome %d out of range [0,%d) in row %d", o, cols, c)
			}
		}
		t.available[c] = append([]int(nil), row...)
	}
	return t, nil
}

// NewLike returns a zeroed table of the same shape and availability.
func (t *Table) NewLike() *Table {
	return &Table{
		rows:      t.rows,
		cols:      t.cols,
		values:    make([]float64, len(t.values)),
		available: t.available,
	}
}

func (t *Table) Rows() int { return t.rows }
func (t *Table) Cols() int { return t.cols }

// Available returns the outcomes available to row c. The slice must not be modified.
func (t *Table) Available(c int) []int {
	return t.available[c]
}

func (t *Table) Get(c, o int) float64 {
	return t.values[c*t.cols+o]
}

func (t *Table) Set(c, o int, v float64) {
	t.values[c*t.cols+o] = v
}

func (t *Table) Add(c, o int, v float64) {
	t.values[c*t.cols+o] += v
}

// Row returns the row c as a slice over all cols outcomes.
func (t *Table) Row(c int) []float64 {
	return t.values[c*t.cols : (c+1)*t.cols]
}

// RowSum sums row c. Unavailable outcomes hold zero.
func (t *Table) RowSum(c int) float64 {
	return floats.Sum(t.Row(c))
}

// Clear zeroes every value.
func (t *Table) Clear() {
	clear(t.values)
}

// SameShape reports whether other has the same rows and cols as t.
func (t *Table) SameShape(other *Table) bool {
	return t.rows == other.rows && t.cols == other.cols
}

// AddTable adds other into t element-wise. The shapes must agree.
func (t *Table) AddTable(other *Table) {
	if !t.SameShape(other) {
		panic(fmt.Sprintf("AddTable: shape %dx%d != %dx%d", t.rows, t.cols, other.rows, other.cols))
	}
	floats.Add(t.values, other.values)
}

// Uniform sets each row to the uniform distribution over its available outcomes.
func (t *Table) Uniform() {
	t.Clear()
	for c := 0; c < t.rows; c++ {
		if len(t.available[c]) == 0 {
			continue
		}
		p := 1 / float64(len(t.available[c]))
		for _, o := range t.available[c] {
			t.Set(c, o, p)
		}
	}
}

// Normalize rescales each row to sum to one. Rows with zero mass become uniform.
func (t *Table) Normalize() {
	for c := 0; c < t.rows; c++ {
		avail := t.available[c]
		if len(avail) == 0 {
			continue
		}
		if sum := t.RowSum(c); sum > 0 {
			floats.Scale(1/sum, t.Row(c))
			continue
		}
		for _, o := range avail {
			t.Set(c, o, 1/float64(len(avail)))
		}
	}
}

// Values exposes the backing storage in row-major order.
func (t *Table) Values() []float64 {
	return t.values
}
