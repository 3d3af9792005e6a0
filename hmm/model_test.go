package hmm

import (
	"errors"
	"math"
	"testing"

	"github.com/neurlang/hmmgrad/corpus"
	"gonum.org/v1/gonum/floats/scalar"
)

func testModel(t *testing.T) *Model {
	c := corpus.FromTokens([][]string{
		{"a", "b", "c", "a"},
		{"c", "c"},
		{"b"},
	})
	m, err := New(c, 2)
	if err != nil {
		t.Fatal(err)
	}
	m.Randomize(7)
	return m
}

// bruteForce enumerates every state path of words.
func bruteForce(m *Model, words []int) (logLikelihood float64, bestPath []int, bestScore float64) {
	S, T := m.States, len(words)
	path := make([]int, T)
	var total float64
	bestScore = math.Inf(-1)
	var walk func(t int, p float64)
	walk = func(t int, p float64) {
		if t == T {
			total += p
			if lp := math.Log(p); lp > bestScore {
				bestScore = lp
				bestPath = append([]int(nil), path...)
			}
			return
		}
		for s := 0; s < S; s++ {
			path[t] = s
			q := p * m.observation.Get(s, words[t])
			if t == 0 {
				q *= m.initial.Get(0, s)
			} else {
				q *= m.transition.Get(path[t-1], s)
			}
			walk(t+1, q)
		}
	}
	walk(0, 1)
	return math.Log(total), bestPath, bestScore
}

func TestForwardMatchesBruteForce(t *testing.T) {
	m := testModel(t)
	for _, sd := range m.SentenceDists() {
		want, _, _ := bruteForce(m, sd.Words())
		sd.Init()
		if err := m.ComputePosteriors(sd); err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinAbsOrRel(sd.LogLikelihood(), want, 1e-10, 1e-10) {
			t.Errorf("sentence %d: forward %v, brute force %v", sd.Index(), sd.LogLikelihood(), want)
		}
		for pos := 0; pos < sd.Len(); pos++ {
			sum := sd.Posterior(pos, 0) + sd.Posterior(pos, 1)
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("posterior mass %v at %d", sum, pos)
			}
		}
		sd.Release()
		if sd.Cached() {
			t.Errorf("sentence %d still holds caches", sd.Index())
		}
	}
}

func TestEStepCounts(t *testing.T) {
	m := testModel(t)
	ll, err := m.EStep()
	if err != nil {
		t.Fatal(err)
	}
	var want float64
	for _, sd := range m.SentenceDists() {
		l, _, _ := bruteForce(m, sd.Words())
		want += l
	}
	if !scalar.EqualWithinAbsOrRel(ll, want, 1e-10, 1e-10) {
		t.Errorf("EStep log-likelihood %v, want %v", ll, want)
	}
	ct := m.CountTable()
	if math.Abs(ct.Total()-3) > 1e-9 {
		t.Errorf("initial mass %v, expected one per sentence", ct.Total())
	}
	var obs, trans float64
	for s := 0; s < m.States; s++ {
		obs += ct.Observation.RowSum(s)
		trans += ct.Transition.RowSum(s)
	}
	if math.Abs(obs-7) > 1e-9 {
		t.Errorf("observation mass %v, expected 7 tokens", obs)
	}
	if math.Abs(trans-4) > 1e-9 {
		t.Errorf("transition mass %v, expected 4 bigrams", trans)
	}
	for _, sd := range m.SentenceDists() {
		if sd.Cached() {
			t.Errorf("EStep leaked caches of sentence %d", sd.Index())
		}
	}
}

func TestEMImproves(t *testing.T) {
	m := testModel(t)
	prev, err := m.EStep()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		m.MStep(0)
		ll, err := m.EStep()
		if err != nil {
			t.Fatal(err)
		}
		if ll < prev-1e-9 {
			t.Errorf("EM iteration %d decreased log-likelihood %v -> %v", i, prev, ll)
		}
		prev = ll
	}
}

func TestDegenerate(t *testing.T) {
	m := testModel(t)
	_, _, obs := m.Probabilities()
	b, _ := m.Corpus().Vocab.ID("b")
	for s := 0; s < m.States; s++ {
		obs.Set(s, b, 0)
	}
	sd := m.SentenceDists()[0]
	sd.Init()
	err := m.ComputePosteriors(sd)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Position != 1 || ie.Sentence != 0 {
		t.Errorf("bad location %+v", ie)
	}
	sd.Release()
}

func TestDecode(t *testing.T) {
	m := testModel(t)
	for _, sd := range m.SentenceDists() {
		_, wantPath, wantScore := bruteForce(m, sd.Words())
		path, score := m.Decode(sd.Words())
		if !scalar.EqualWithinAbsOrRel(score, wantScore, 1e-10, 1e-10) {
			t.Errorf("viterbi score %v, brute force %v", score, wantScore)
		}
		for i := range path {
			if path[i] != wantPath[i] {
				t.Errorf("viterbi path %v, brute force %v", path, wantPath)
				break
			}
		}
	}
}

func TestNewRejects(t *testing.T) {
	c := corpus.FromTokens([][]string{{"a"}})
	if _, err := New(c, 0); err == nil {
		t.Errorf("expected error for zero states")
	}
	c.Sentences = append(c.Sentences, []int{5})
	if _, err := New(c, 2); err == nil {
		t.Errorf("expected error for word outside vocabulary")
	}
}
