package objective

import (
	"github.com/neurlang/hmmgrad/counts"
	"github.com/neurlang/hmmgrad/multinomial"
)

// Sentence is the per-sentence inference workspace.
type Sentence interface {
	Init()
	LogLikelihood() float64
	ClearCaches()
	ClearPosteriors()
}

// Model is the HMM the objective trains. ComputePosteriors must only read the
// probability tables, so distinct sentences may be processed concurrently,
// each accumulating into its own count table.
type Model[S Sentence] interface {
	CountTable() *counts.Table
	Probabilities() (initial, transition, observation *multinomial.Table)
	SentenceDists() []S
	ComputePosteriors(sd S) error
	AddToCounts(sd S, ct *counts.Table)
	Word(id int) string
}

// SubModelTrainer owns the soft-max parameterization of one multinomial
// family and its share of the parameter vector.
//
// WriteGradient must write the complete gradient of the block, including the
// derivative 2θ/σ² of the Gaussian prior. The objective adds the prior to the
// value only.
type SubModelTrainer interface {
	NumParams() int
	ParametersFromCounts(counts *multinomial.Table, out []float64, offset int)
	PushParameters(counts *multinomial.Table, vector []float64, offset int)
	CurrentMultinomial(out *multinomial.Table)
	WriteGradient(out []float64, offset int)
	Value() float64
	FeatureLabel(local int) string
}

// priorVarianced is implemented by trainers that can report the prior they
// regularize their gradient with.
type priorVarianced interface {
	PriorVariance() float64
}
