package hmm

import "math"

// SentenceDist is the inference workspace of one sentence. Init acquires the
// forward/backward caches, ClearCaches and ClearPosteriors release them.
type SentenceDist struct {
	index  int
	words  []int
	states int

	alpha  []float64 // scaled forward probabilities, len(words) x states
	beta   []float64 // scaled backward probabilities, len(words) x states
	scale  []float64 // forward normalizers
	state  []float64 // state posteriors, len(words) x states
	loglik float64
	cached bool
}

// Init (re)acquires the workspace and forgets any previous result.
func (sd *SentenceDist) Init() {
	n := len(sd.words) * sd.states
	sd.alpha = make([]float64, n)
	sd.beta = make([]float64, n)
	sd.scale = make([]float64, len(sd.words))
	sd.state = nil
	sd.loglik = math.NaN()
	sd.cached = true
}

// LogLikelihood of the sentence computed by the last ComputePosteriors.
func (sd *SentenceDist) LogLikelihood() float64 {
	return sd.loglik
}

// ClearCaches releases the forward/backward tables.
func (sd *SentenceDist) ClearCaches() {
	sd.alpha = nil
	sd.beta = nil
	sd.scale = nil
	sd.cached = false
}

// ClearPosteriors releases the state posteriors.
func (sd *SentenceDist) ClearPosteriors() {
	sd.state = nil
}

// Release drops every cache held by the sentence.
func (sd *SentenceDist) Release() {
	sd.ClearCaches()
	sd.ClearPosteriors()
}

// Cached reports whether any workspace is still held.
func (sd *SentenceDist) Cached() bool {
	return sd.cached || sd.alpha != nil || sd.beta != nil || sd.state != nil
}

// Posterior returns p(state at position t | sentence) after ComputePosteriors.
func (sd *SentenceDist) Posterior(t, state int) float64 {
	return sd.state[t*sd.states+state]
}

func (sd *SentenceDist) Index() int   { return sd.index }
func (sd *SentenceDist) Len() int     { return len(sd.words) }
func (sd *SentenceDist) Words() []int { return sd.words }
