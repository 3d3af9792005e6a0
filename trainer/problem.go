package trainer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Function is a differentiable function of a parameter vector that evaluates
// itself whenever its parameters are set.
type Function interface {
	SetParameters(p []float64)
	Value() float64
	Gradient() []float64
	Parameters() []float64
	NumParams() int
}

// Problem adapts fn to gonum's optimize package. Func and Grad only set the
// parameters of fn when x differs from the point fn was last evaluated at, so
// asking for the value and the gradient at the same point costs one
// evaluation.
func Problem(fn Function) optimize.Problem {
	current := fn.Parameters()
	move := func(x []float64) {
		if floats.Equal(x, current) {
			return
		}
		fn.SetParameters(x)
		copy(current, x)
	}
	return optimize.Problem{
		Func: func(x []float64) float64 {
			move(x)
			return fn.Value()
		},
		Grad: func(grad, x []float64) {
			move(x)
			copy(grad, fn.Gradient())
		},
	}
}
