package objective

import (
	"fmt"

	"github.com/neurlang/hmmgrad/hmm"
	"github.com/neurlang/hmmgrad/maxent"
)

// FeatureOptions select the soft-max features of the three trainers built by
// NewForHMM.
type FeatureOptions struct {
	Smoothing   float64 // see maxent.Options
	OutcomeBias bool    // shared per-word bias on the observation multinomial
}

// NewForHMM builds one maxent trainer per probability table of m, all
// regularized with opts.PriorVariance, and the objective over them.
func NewForHMM(m *hmm.Model, opts Options, feat FeatureOptions) (*Objective[*hmm.SentenceDist], error) {
	initial, transition, observation := m.Probabilities()
	state := func(s int) string { return fmt.Sprintf("s%d", s) }
	base := maxent.Options{
		PriorVariance: opts.PriorVariance,
		Smoothing:     feat.Smoothing,
	}

	initOpts := base
	initOpts.ConditionLabel = func(int) string { return "start" }
	initOpts.OutcomeLabel = state
	initTrainer, err := maxent.New("init", initial, initOpts)
	if err != nil {
		return nil, err
	}

	transOpts := base
	transOpts.ConditionLabel = state
	transOpts.OutcomeLabel = state
	transTrainer, err := maxent.New("trans", transition, transOpts)
	if err != nil {
		return nil, err
	}

	obsOpts := base
	obsOpts.OutcomeBias = feat.OutcomeBias
	obsOpts.ConditionLabel = state
	obsOpts.OutcomeLabel = m.Word
	obsTrainer, err := maxent.New("obs", observation, obsOpts)
	if err != nil {
		return nil, err
	}

	return New[*hmm.SentenceDist](m, initTrainer, transTrainer, obsTrainer, opts)
}
