package hmm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerate reports an internal consistency violation of inference,
// typically a multinomial that collapsed to zero probability for every state
// able to explain a word.
var ErrDegenerate = errors.New("degenerate posterior")

// posteriorTolerance bounds how far the posterior mass of one position may
// drift from one.
const posteriorTolerance = 1e-6

// InferenceError locates a consistency violation.
type InferenceError struct {
	Sentence int
	Position int
	Detail   string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("sentence %d position %d: %s: %v", e.Sentence, e.Position, e.Detail, ErrDegenerate)
}

func (e *InferenceError) Unwrap() error {
	return ErrDegenerate
}

func (m *Model) forward(sd *SentenceDist) error {
	S := m.States
	sd.loglik = 0
	emit := make([]float64, S)
	for t, w := range sd.words {
		row := sd.alpha[t*S : (t+1)*S]
		if t == 0 {
			copy(row, m.initial.Row(0))
		} else {
			clear(row)
			for r, a := range sd.alpha[(t-1)*S : t*S] {
				floats.AddScaled(row, a, m.transition.Row(r))
			}
		}
		for s := range emit {
			emit[s] = m.observation.Get(s, w)
		}
		floats.Mul(row, emit)
		sum := floats.Sum(row)
		if !(sum > 0) || math.IsInf(sum, 0) {
			return &InferenceError{Sentence: sd.index, Position: t,
				Detail: fmt.Sprintf("forward normalizer %v", sum)}
		}
		floats.Scale(1/sum, row)
		sd.scale[t] = sum
		sd.loglik += math.Log(sum)
	}
	return nil
}

func (m *Model) backward(sd *SentenceDist) {
	S := m.States
	T := len(sd.words)
	if T == 0 {
		return
	}
	for s := 0; s < S; s++ {
		sd.beta[(T-1)*S+s] = 1
	}
	emit := make([]float64, S)
	for t := T - 2; t >= 0; t-- {
		next := sd.words[t+1]
		for s := 0; s < S; s++ {
			emit[s] = m.observation.Get(s, next)
		}
		floats.Mul(emit, sd.beta[(t+1)*S:(t+2)*S])
		row := sd.beta[t*S : (t+1)*S]
		for r := range row {
			row[r] = floats.Dot(m.transition.Row(r), emit)
		}
		floats.Scale(1/sd.scale[t+1], row)
	}
}

func (m *Model) posteriors(sd *SentenceDist) error {
	S := m.States
	sd.state = make([]float64, len(sd.words)*S)
	for t := range sd.words {
		lo, hi := t*S, (t+1)*S
		sum := floats.Sum(floats.MulTo(sd.state[lo:hi], sd.alpha[lo:hi], sd.beta[lo:hi]))
		if math.IsNaN(sum) || math.Abs(sum-1) > posteriorTolerance {
			return &InferenceError{Sentence: sd.index, Position: t,
				Detail: fmt.Sprintf("posterior mass %v", sum)}
		}
	}
	return nil
}

// LogLikelihood runs a stand-alone scaled forward pass over words.
func (m *Model) LogLikelihood(words []int) (float64, error) {
	sd := &SentenceDist{index: -1, words: words, states: m.States}
	sd.Init()
	defer sd.Release()
	if err := m.forward(sd); err != nil {
		return math.Inf(-1), err
	}
	return sd.loglik, nil
}
