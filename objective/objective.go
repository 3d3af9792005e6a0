// Package objective implements the penalized negative log-likelihood of an HMM
// as a differentiable function of one flat parameter vector.
//
// The vector is the concatenation of the soft-max weights of the initial,
// transition and observation multinomials, each owned by a SubModelTrainer.
// Every time the optimizer sets new parameters the objective installs the
// implied probabilities into the model, runs an expectation pass over all
// sentences and recomputes the value and the gradient.
package objective

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/neurlang/hmmgrad/counts"
	"github.com/neurlang/hmmgrad/multinomial"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNotImplemented is returned by SetParameter: a single coordinate
	// cannot be updated without recomputing every block.
	ErrNotImplemented = errors.New("setting one parameter at a time is not supported")

	// ErrInvalidLayout reports trainers that cannot be laid out in one vector.
	ErrInvalidLayout = errors.New("invalid parameter layout")

	// ErrInvalidPrior reports a prior variance that is not positive and
	// finite, or that disagrees with the one a trainer regularizes with.
	ErrInvalidPrior = errors.New("invalid prior variance")
)

// State tells whether value and gradient match the current parameters.
type State int

const (
	Stale State = iota
	Fresh
)

func (s State) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

// Evaluation is the outcome of one refresh.
type Evaluation struct {
	Value            float64 // NegLogLikelihood + Penalty, +Inf when infeasible
	NegLogLikelihood float64 // −Σ sentence log-likelihoods, +Inf when infeasible
	Penalty          float64 // ‖p‖²/σ²
	Failure          *Failure
}

// Infeasible reports whether inference broke down at these parameters.
func (e Evaluation) Infeasible() bool {
	return e.Failure != nil
}

// Objective is the penalized negative log-likelihood of a Model.
type Objective[S Sentence] struct {
	model    Model[S]
	counts   *counts.Table
	trainers [3]SubModelTrainer
	tables   [3]*multinomial.Table
	layout   Layout
	opts     Options
	log      *slog.Logger

	parameters []float64
	gradient   []float64
	value      float64
	last       Evaluation
	state      State
	refreshes  int

	shards []*counts.Table
}

// New lays the three trainers out in one vector, seeds the parameters as
// selected by opts.Init and computes the first value and gradient.
func New[S Sentence](model Model[S], initial, transition, observation SubModelTrainer, opts Options) (*Objective[S], error) {
	opts = opts.withDefaults()
	if !(opts.PriorVariance > 0) || math.IsInf(opts.PriorVariance, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrior, opts.PriorVariance)
	}
	o := &Objective[S]{
		model:    model,
		counts:   model.CountTable(),
		trainers: [3]SubModelTrainer{initial, transition, observation},
		opts:     opts,
		log:      opts.Logger,
		value:    math.NaN(),
	}
	o.tables[Initial], o.tables[Transition], o.tables[Observation] = model.Probabilities()
	var sizes [3]int
	for _, b := range Blocks {
		tr := o.trainers[b]
		if tr == nil {
			return nil, fmt.Errorf("%w: no trainer for %s block", ErrInvalidLayout, b)
		}
		if pv, ok := tr.(priorVarianced); ok && pv.PriorVariance() != opts.PriorVariance {
			return nil, fmt.Errorf("%w: %s trainer regularizes with %v, objective with %v",
				ErrInvalidPrior, b, pv.PriorVariance(), opts.PriorVariance)
		}
		sizes[b] = tr.NumParams()
	}
	layout, err := NewLayout(sizes[Initial], sizes[Transition], sizes[Observation])
	if err != nil {
		return nil, err
	}
	o.layout = layout
	o.parameters = make([]float64, layout.Len())
	o.gradient = make([]float64, layout.Len())

	switch opts.Init {
	case InitFromCounts:
		// one EM step from the model's current probabilities
		if ev := o.expectation(); ev.Infeasible() {
			return nil, fmt.Errorf("seeding parameters from counts: %w", ev.Failure.Err)
		}
		for _, b := range Blocks {
			o.trainers[b].ParametersFromCounts(o.countsFor(b), o.parameters, layout.Offset(b))
		}
	case InitRandom:
		r := rand.New(rand.NewSource(opts.Seed))
		for i := range o.parameters {
			o.parameters[i] = r.Float64()
		}
	default:
		return nil, fmt.Errorf("unknown init mode %d", opts.Init)
	}

	o.Refresh()
	o.log.Info("finished initializing objective",
		"parameters", layout.Len(),
		"value", o.value,
		"grad_norm2", floats.Dot(o.gradient, o.gradient))
	if opts.CheckGradientOnInit {
		o.CheckGradient()
	}
	return o, nil
}

func (o *Objective[S]) countsFor(b Block) *multinomial.Table {
	switch b {
	case Initial:
		return o.counts.Initial
	case Transition:
		return o.counts.Transition
	}
	return o.counts.Observation
}

// push hands the parameter vector to the trainers and installs the implied
// probabilities into the model.
func (o *Objective[S]) push() {
	for _, b := range Blocks {
		o.trainers[b].PushParameters(o.countsFor(b), o.parameters, o.layout.Offset(b))
		o.trainers[b].CurrentMultinomial(o.tables[b])
	}
}

// Refresh recomputes value and gradient at the current parameters. It never
// fails: if inference breaks down the value is +Inf.
func (o *Objective[S]) Refresh() Evaluation {
	o.state = Stale
	o.push()

	ev := o.expectation()
	ev.Penalty = floats.Dot(o.parameters, o.parameters) / o.opts.PriorVariance
	ev.Value = ev.NegLogLikelihood + ev.Penalty

	// the trainers must see the counts of this pass before the gradient
	for _, b := range Blocks {
		o.trainers[b].PushParameters(o.countsFor(b), o.parameters, o.layout.Offset(b))
	}
	for _, b := range Blocks {
		o.trainers[b].WriteGradient(o.gradient, o.layout.Offset(b))
	}

	o.value = ev.Value
	o.last = ev
	o.state = Fresh
	o.refreshes++
	o.log.Debug("refresh", "n", o.refreshes, "value", ev.Value, "penalty", ev.Penalty, "infeasible", ev.Infeasible())
	return ev
}

// SetParameters copies p into the parameter vector and refreshes. p must have
// the length of the vector.
func (o *Objective[S]) SetParameters(p []float64) {
	if len(p) != len(o.parameters) {
		panic(fmt.Sprintf("SetParameters: got %d parameters, layout has %d", len(p), len(o.parameters)))
	}
	copy(o.parameters, p)
	o.Refresh()
	if o.opts.CheckGradientOnSet {
		o.CheckGradient()
	}
}

// SetParameter always fails with ErrNotImplemented and leaves the objective
// untouched.
func (o *Objective[S]) SetParameter(i int, v float64) error {
	return fmt.Errorf("SetParameter(%d, %v): %w", i, v, ErrNotImplemented)
}

// Value is the penalized negative log-likelihood at the current parameters,
// +Inf if they are infeasible and NaN before the first refresh.
func (o *Objective[S]) Value() float64 {
	return o.value
}

// Gradient of Value at the current parameters. The slice is owned by the
// objective and overwritten by the next refresh.
func (o *Objective[S]) Gradient() []float64 {
	return o.gradient
}

// Parameters returns a copy of the parameter vector.
func (o *Objective[S]) Parameters() []float64 {
	return append([]float64(nil), o.parameters...)
}

func (o *Objective[S]) NumParams() int             { return len(o.parameters) }
func (o *Objective[S]) Layout() Layout             { return o.layout }
func (o *Objective[S]) State() State               { return o.state }
func (o *Objective[S]) LastEvaluation() Evaluation { return o.last }
func (o *Objective[S]) Evaluations() int           { return o.refreshes }

// LastFailure returns the failure of the last refresh, or nil.
func (o *Objective[S]) LastFailure() *Failure {
	return o.last.Failure
}

// Trainer returns the trainer of block b.
func (o *Objective[S]) Trainer(b Block) SubModelTrainer {
	return o.trainers[b]
}

// FeatureLabel describes the parameter at flat index i.
func (o *Objective[S]) FeatureLabel(i int) string {
	b, local := o.layout.Owner(i)
	return o.trainers[b].FeatureLabel(local)
}

func (o *Objective[S]) String() string {
	return fmt.Sprintf("hmm objective (%d parameters, %s)", len(o.parameters), o.state)
}
