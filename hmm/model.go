// Package hmm implements a discrete hidden Markov model over a corpus: its
// three probability tables, per-sentence posterior inference and the
// accumulation of expected counts.
package hmm

import (
	"fmt"
	"math/rand"

	"github.com/neurlang/hmmgrad/corpus"
	"github.com/neurlang/hmmgrad/counts"
	"github.com/neurlang/hmmgrad/multinomial"
)

// Model is a first order HMM with States hidden states emitting words of a
// corpus vocabulary.
type Model struct {
	States int

	initial     *multinomial.Table // 1 x States
	transition  *multinomial.Table // States x States
	observation *multinomial.Table // States x vocabulary

	corpus *corpus.Corpus
	dists  []*SentenceDist
	counts *counts.Table
}

// New creates a model with uniform probabilities and one SentenceDist per
// corpus sentence.
func New(c *corpus.Corpus, states int) (*Model, error) {
	if states < 1 {
		return nil, fmt.Errorf("New HMM: %d states, need at least 1", states)
	}
	if c == nil || c.Vocab == nil {
		return nil, fmt.Errorf("New HMM: nil corpus")
	}
	vocab := c.Vocab.Len()
	for i, s := range c.Sentences {
		for _, w := range s {
			if w < 0 || w >= vocab {
				return nil, fmt.Errorf("New HMM: sentence %d has word id %d outside vocabulary of %d", i, w, vocab)
			}
		}
	}
	m := &Model{
		States:      states,
		initial:     multinomial.New(1, states),
		transition:  multinomial.New(states, states),
		observation: multinomial.New(states, vocab),
		corpus:      c,
	}
	m.initial.Uniform()
	m.transition.Uniform()
	m.observation.Uniform()
	m.counts = counts.Like(m.initial, m.transition, m.observation)
	m.dists = make([]*SentenceDist, len(c.Sentences))
	for i, s := range c.Sentences {
		m.dists[i] = &SentenceDist{index: i, words: s, states: states}
	}
	return m, nil
}

// Randomize replaces the probabilities with random distributions drawn from
// the seeded generator. Used to break the symmetry of a uniform start.
func (m *Model) Randomize(seed int64) {
	r := rand.New(rand.NewSource(seed))
	for _, t := range []*multinomial.Table{m.initial, m.transition, m.observation} {
		for c := 0; c < t.Rows(); c++ {
			for _, o := range t.Available(c) {
				t.Set(c, o, 0.5+r.Float64())
			}
		}
		t.Normalize()
	}
}

// CountTable returns the shared expected-count table of the model.
func (m *Model) CountTable() *counts.Table {
	return m.counts
}

// Probabilities returns the live probability tables. Writing into them
// installs new parameters for subsequent inference.
func (m *Model) Probabilities() (initial, transition, observation *multinomial.Table) {
	return m.initial, m.transition, m.observation
}

// SentenceDists returns one distribution per corpus sentence in corpus order.
func (m *Model) SentenceDists() []*SentenceDist {
	return m.dists
}

// Corpus returns the corpus the model was built for.
func (m *Model) Corpus() *corpus.Corpus {
	return m.corpus
}

// Word looks up a vocabulary entry for diagnostics.
func (m *Model) Word(id int) string {
	return m.corpus.Vocab.Word(id)
}

// ComputePosteriors runs forward/backward inference on sd under the current
// probabilities. The workspace of sd is acquired if Init was not called.
func (m *Model) ComputePosteriors(sd *SentenceDist) error {
	if !sd.cached {
		sd.Init()
	}
	if err := m.forward(sd); err != nil {
		return err
	}
	m.backward(sd)
	return m.posteriors(sd)
}

// AddToCounts adds the expected counts of sd into ct. The forward/backward
// caches and posteriors of sd must still be held.
func (m *Model) AddToCounts(sd *SentenceDist, ct *counts.Table) {
	T := len(sd.words)
	if T == 0 || sd.state == nil {
		return
	}
	S := m.States
	for s := 0; s < S; s++ {
		ct.Initial.Add(0, s, sd.state[s])
	}
	for t, w := range sd.words {
		for s := 0; s < S; s++ {
			ct.Observation.Add(s, w, sd.state[t*S+s])
		}
	}
	for t := 0; t+1 < T; t++ {
		next := sd.words[t+1]
		for r := 0; r < S; r++ {
			a := sd.alpha[t*S+r]
			if a == 0 {
				continue
			}
			for s := 0; s < S; s++ {
				xi := a * m.transition.Get(r, s) * m.observation.Get(s, next) * sd.beta[(t+1)*S+s] / sd.scale[t+1]
				ct.Transition.Add(r, s, xi)
			}
		}
	}
}

// EStep clears the count table and fills it with the expected counts of the
// whole corpus, releasing every sentence workspace. It returns the corpus
// log-likelihood.
func (m *Model) EStep() (float64, error) {
	m.counts.Clear()
	var ll float64
	for _, sd := range m.dists {
		err := func() error {
			sd.Init()
			defer sd.Release()
			if err := m.ComputePosteriors(sd); err != nil {
				return err
			}
			m.AddToCounts(sd, m.counts)
			ll += sd.LogLikelihood()
			return nil
		}()
		if err != nil {
			return ll, err
		}
	}
	return ll, nil
}

// MStep replaces the probabilities with the normalized expected counts,
// smoothed by adding alpha to every available cell.
func (m *Model) MStep(alpha float64) {
	pairs := [][2]*multinomial.Table{
		{m.initial, m.counts.Initial},
		{m.transition, m.counts.Transition},
		{m.observation, m.counts.Observation},
	}
	for _, p := range pairs {
		prob, cnt := p[0], p[1]
		for c := 0; c < prob.Rows(); c++ {
			for _, o := range prob.Available(c) {
				prob.Set(c, o, cnt.Get(c, o)+alpha)
			}
		}
		prob.Normalize()
	}
}
