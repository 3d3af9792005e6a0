package objective

import (
	"fmt"

	"github.com/neurlang/hmmgrad/hash"
	"gonum.org/v1/gonum/floats"
)

// GradientReport summarizes a finite difference check of the gradient.
type GradientReport struct {
	Value         float64    // objective value at the unperturbed parameters
	TrainerValues [3]float64 // Value() of each sub-model trainer

	Coordinates []int     // flat indexes probed
	Analytical  []float64 // gradient at Coordinates
	Plus        []float64 // (f(p+εe_i) − f(p)) / ε
	Minus       []float64 // (f(p) − f(p−εe_i)) / ε

	AnalyticalNorm, PlusNorm, MinusNorm float64
	PlusCosine, MinusCosine             float64

	// Mismatch is set when either cosine is not above the threshold.
	Mismatch bool
}

// CheckGradient compares the analytical gradient with one sided finite
// differences on a sample of coordinates. A mismatch is logged and a per
// coordinate table is written to Options.Output; it is not an error. The
// parameters are restored and refreshed before returning.
func (o *Objective[S]) CheckGradient() GradientReport {
	opts := o.opts.GradientCheck
	n := len(o.parameters)

	o.Refresh()
	rep := GradientReport{Value: o.value}
	var trainerSum float64
	for _, b := range Blocks {
		rep.TrainerValues[b] = o.trainers[b].Value()
		trainerSum += rep.TrainerValues[b]
	}
	o.log.Info("testing gradient",
		"value", o.value,
		"trainers", trainerSum,
		"init", rep.TrainerValues[Initial],
		"trans", rep.TrainerValues[Transition],
		"obs", rep.TrainerValues[Observation],
		"diff", o.value-trainerSum)

	p := 1.0
	if n > opts.MaxDirections {
		o.log.Info("big gradient, subsampling directions", "parameters", n, "directions", opts.MaxDirections)
		p = float64(opts.MaxDirections) / float64(n)
	}
	for i := 0; i < n; i++ {
		if hash.Bernoulli(i, opts.Seed, p) {
			rep.Coordinates = append(rep.Coordinates, i)
			rep.Analytical = append(rep.Analytical, o.gradient[i])
		}
	}

	orig := o.value
	rep.Plus = make([]float64, len(rep.Coordinates))
	rep.Minus = make([]float64, len(rep.Coordinates))
	for k, i := range rep.Coordinates {
		theta := o.parameters[i]
		o.parameters[i] = theta + opts.Epsilon
		o.Refresh()
		rep.Plus[k] = (o.value - orig) / opts.Epsilon
		o.parameters[i] = theta - opts.Epsilon
		o.Refresh()
		rep.Minus[k] = (orig - o.value) / opts.Epsilon
		o.parameters[i] = theta
	}

	rep.AnalyticalNorm = floats.Norm(rep.Analytical, 2)
	rep.PlusNorm = floats.Norm(rep.Plus, 2)
	rep.MinusNorm = floats.Norm(rep.Minus, 2)
	rep.PlusCosine = cosine(rep.Plus, rep.Analytical)
	rep.MinusCosine = cosine(rep.Minus, rep.Analytical)
	rep.Mismatch = !(rep.PlusCosine > opts.Threshold) || !(rep.MinusCosine > opts.Threshold)

	o.log.Info("gradient check",
		"directions", len(rep.Coordinates),
		"analytical_norm", rep.AnalyticalNorm,
		"plus_norm", rep.PlusNorm,
		"minus_norm", rep.MinusNorm,
		"cos_plus", rep.PlusCosine,
		"cos_minus", rep.MinusCosine)
	if rep.Mismatch {
		o.log.Warn("probable bug in gradient computation", "threshold", opts.Threshold)
		o.writeGradientTable(rep)
	}

	o.Refresh()
	return rep
}

func (o *Objective[S]) writeGradientTable(rep GradientReport) {
	w := o.opts.Output
	fmt.Fprintf(w, "%5s %8s %8s %8s %8s  %s\n", "i", "param", "grad", "+", "-", "feature")
	for k, i := range rep.Coordinates {
		b, local := o.layout.Owner(i)
		fmt.Fprintf(w, "%5d %8.2f %8.2f %8.2f %8.2f  %5s %s\n",
			i, o.parameters[i], rep.Analytical[k], rep.Plus[k], rep.Minus[k],
			b, o.trainers[b].FeatureLabel(local))
	}
}

func cosine(a, b []float64) float64 {
	return floats.Dot(a, b) / (floats.Norm(a, 2) * floats.Norm(b, 2))
}
