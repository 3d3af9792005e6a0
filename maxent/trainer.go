// Package maxent implements a multinomial parameterized by soft-max feature
// weights, trained by direct gradient on expected counts.
//
// A conditional multinomial p(o|c) is represented as
//
//	p(o|c) = exp(θ·f(c,o)) / Σ_o' exp(θ·f(c,o'))
//
// with one indicator feature per available (c, o) pair and, optionally, one
// bias feature per outcome shared by all conditions. Given expected counts
// n(c,o) collected under the current weights, Value is the penalized expected
// negative log-likelihood
//
//	−Σ n(c,o) log p(o|c) + ‖θ‖²/σ²
//
// and WriteGradient its gradient, regularization term included.
package maxent

import (
	"fmt"
	"math"

	"github.com/neurlang/hmmgrad/multinomial"
	"gonum.org/v1/gonum/floats"
)

// DefaultSmoothing is added to every count when deriving weights from counts.
const DefaultSmoothing = 1e-2

// Options configure a Trainer.
type Options struct {
	PriorVariance float64 // σ² of the Gaussian prior, must be > 0
	Smoothing     float64 // additive smoothing for ParametersFromCounts, 0 means DefaultSmoothing
	OutcomeBias   bool    // add one shared bias weight per outcome

	// Labels used by FeatureLabel. Nil prints the raw index.
	ConditionLabel func(c int) string
	OutcomeLabel   func(o int) string
}

// Trainer converts between a block of a flat parameter vector and the soft-max
// weights of one conditional multinomial.
type Trainer struct {
	name string
	opts Options

	rows, cols int
	available  [][]int
	start      []int // index of the first indicator weight of each row
	indicators int

	theta   []float64
	logProb []float64 // rows x cols, -Inf for unavailable outcomes
	scores  []float64
	counts  *multinomial.Table
}

// New creates a trainer for multinomials shaped like shape. Only the shape and
// availability of shape are used.
func New(name string, shape *multinomial.Table, opts Options) (*Trainer, error) {
	if !(opts.PriorVariance > 0) || math.IsInf(opts.PriorVariance, 0) {
		return nil, fmt.Errorf("maxent %s: prior variance %v must be positive and finite", name, opts.PriorVariance)
	}
	if opts.Smoothing == 0 {
		opts.Smoothing = DefaultSmoothing
	}
	tr := &Trainer{
		name:      name,
		opts:      opts,
		rows:      shape.Rows(),
		cols:      shape.Cols(),
		available: make([][]int, shape.Rows()),
		start:     make([]int, shape.Rows()),
	}
	for c := range tr.available {
		tr.available[c] = shape.Available(c)
		tr.start[c] = tr.indicators
		tr.indicators += len(tr.available[c])
	}
	tr.theta = make([]float64, tr.NumParams())
	tr.logProb = make([]float64, tr.rows*tr.cols)
	tr.scores = make([]float64, tr.cols)
	tr.computeLogProb()
	return tr, nil
}

// NumParams is the number of weights in the trainer's block.
func (tr *Trainer) NumParams() int {
	if tr.opts.OutcomeBias {
		return tr.indicators + tr.cols
	}
	return tr.indicators
}

// ParametersFromCounts writes into out[offset:] the weights reproducing the
// smoothed relative frequencies of counts. These are the M-step solution of EM
// for indicator features.
func (tr *Trainer) ParametersFromCounts(counts *multinomial.Table, out []float64, offset int) {
	block := out[offset : offset+tr.NumParams()]
	alpha := tr.opts.Smoothing
	for c, avail := range tr.available {
		if len(avail) == 0 {
			continue
		}
		total := counts.RowSum(c) + alpha*float64(len(avail))
		for k, o := range avail {
			block[tr.start[c]+k] = math.Log((counts.Get(c, o) + alpha) / total)
		}
	}
	for i := tr.indicators; i < len(block); i++ {
		block[i] = 0
	}
}

// PushParameters loads the weights in vector[offset:] and remembers counts as
// the expected counts Value and WriteGradient are computed against.
func (tr *Trainer) PushParameters(counts *multinomial.Table, vector []float64, offset int) {
	copy(tr.theta, vector[offset:offset+len(tr.theta)])
	tr.counts = counts
	tr.computeLogProb()
}

func (tr *Trainer) score(c, k, o int) float64 {
	s := tr.theta[tr.start[c]+k]
	if tr.opts.OutcomeBias {
		s += tr.theta[tr.indicators+o]
	}
	return s
}

func (tr *Trainer) computeLogProb() {
	for i := range tr.logProb {
		tr.logProb[i] = math.Inf(-1)
	}
	for c, avail := range tr.available {
		if len(avail) == 0 {
			continue
		}
		scores := tr.scores[:len(avail)]
		for k, o := range avail {
			scores[k] = tr.score(c, k, o)
		}
		norm := floats.LogSumExp(scores)
		for k, o := range avail {
			tr.logProb[c*tr.cols+o] = scores[k] - norm
		}
	}
}

// CurrentMultinomial writes the probabilities at the current weights into out.
func (tr *Trainer) CurrentMultinomial(out *multinomial.Table) {
	out.Clear()
	for c, avail := range tr.available {
		for _, o := range avail {
			out.Set(c, o, math.Exp(tr.logProb[c*tr.cols+o]))
		}
	}
}

// Value is the penalized expected negative log-likelihood of the pushed counts.
func (tr *Trainer) Value() float64 {
	var v float64
	if tr.counts != nil {
		for c, avail := range tr.available {
			for _, o := range avail {
				if n := tr.counts.Get(c, o); n != 0 {
					v -= n * tr.logProb[c*tr.cols+o]
				}
			}
		}
	}
	return v + floats.Dot(tr.theta, tr.theta)/tr.opts.PriorVariance
}

// WriteGradient writes the gradient of Value into out[offset:]. The gradient
// of the prior, 2θ/σ², is included.
func (tr *Trainer) WriteGradient(out []float64, offset int) {
	grad := out[offset : offset+len(tr.theta)]
	copy(grad, tr.theta)
	floats.Scale(2/tr.opts.PriorVariance, grad)
	if tr.counts == nil {
		return
	}
	for c, avail := range tr.available {
		total := tr.counts.RowSum(c)
		for k, o := range avail {
			r := total*math.Exp(tr.logProb[c*tr.cols+o]) - tr.counts.Get(c, o)
			grad[tr.start[c]+k] += r
			if tr.opts.OutcomeBias {
				grad[tr.indicators+o] += r
			}
		}
	}
}

// FeatureLabel describes the weight at local index i of the block.
func (tr *Trainer) FeatureLabel(i int) string {
	if i < 0 || i >= len(tr.theta) {
		return fmt.Sprintf("%s ?%d", tr.name, i)
	}
	if i >= tr.indicators {
		return fmt.Sprintf("%s bias(%s)", tr.name, tr.outcomeLabel(i-tr.indicators))
	}
	c := 0
	for c+1 < tr.rows && tr.start[c+1] <= i {
		c++
	}
	o := tr.available[c][i-tr.start[c]]
	return fmt.Sprintf("%s %s->%s", tr.name, tr.conditionLabel(c), tr.outcomeLabel(o))
}

func (tr *Trainer) conditionLabel(c int) string {
	if tr.opts.ConditionLabel != nil {
		return tr.opts.ConditionLabel(c)
	}
	return fmt.Sprint(c)
}

func (tr *Trainer) outcomeLabel(o int) string {
	if tr.opts.OutcomeLabel != nil {
		return tr.opts.OutcomeLabel(o)
	}
	return fmt.Sprint(o)
}

// PriorVariance is the σ² the gradient is regularized with.
func (tr *Trainer) PriorVariance() float64 {
	return tr.opts.PriorVariance
}

func (tr *Trainer) String() string {
	return tr.name
}
