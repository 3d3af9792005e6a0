package objective

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Failure describes an expectation pass that was aborted because inference
// broke down, together with what was known about the parameters at the time.
type Failure struct {
	Err      error
	Sentence int // index of the sentence whose inference failed

	MinParam, MaxParam float64

	// Per observation state, the range of the expected counts collected
	// before the failure.
	States []StateRange
}

// StateRange is the smallest and largest expected observation count of one state.
type StateRange struct {
	State            int
	Min, Max         float64
	MinWord, MaxWord int
	MinText, MaxText string
}

func (f *Failure) Error() string {
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// fail records and logs a failed pass. The counts scanned are those
// accumulated so far, they are meant for diagnosis only.
func (o *Objective[S]) fail(sentence int, err error) *Failure {
	f := &Failure{
		Err:      err,
		Sentence: sentence,
		MinParam: math.NaN(),
		MaxParam: math.NaN(),
	}
	if len(o.parameters) > 0 {
		f.MinParam = floats.Min(o.parameters)
		f.MaxParam = floats.Max(o.parameters)
	}
	o.log.Error("inference failed, parameters are infeasible",
		"sentence", sentence, "err", err,
		"max_param", f.MaxParam, "min_param", f.MinParam)

	obs := o.counts.Observation
	for s := 0; s < obs.Rows(); s++ {
		avail := obs.Available(s)
		if len(avail) == 0 {
			continue
		}
		r := StateRange{State: s, Min: math.Inf(1), Max: math.Inf(-1)}
		for _, w := range avail {
			v := obs.Get(s, w)
			if v > r.Max {
				r.Max, r.MaxWord = v, w
			}
			if v < r.Min {
				r.Min, r.MinWord = v, w
			}
		}
		r.MinText = o.model.Word(r.MinWord)
		r.MaxText = o.model.Word(r.MaxWord)
		f.States = append(f.States, r)
		o.log.Error("observation counts",
			"state", s, "min", r.Min, "max", r.Max, "min_word", r.MinText, "max_word", r.MaxText)
	}
	return f
}
