package maxent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/neurlang/hmmgrad/multinomial"
	"gonum.org/v1/gonum/floats/scalar"
)

func randomCounts(t *testing.T) *multinomial.Table {
	tab, err := multinomial.NewSparse(4, [][]int{{0, 1, 3}, {}, {2}, {0, 1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(3))
	for c := 0; c < tab.Rows(); c++ {
		for _, o := range tab.Available(c) {
			tab.Set(c, o, 3*r.Float64())
		}
	}
	return tab
}

func TestGradientMatchesValue(t *testing.T) {
	for _, bias := range []bool{false, true} {
		counts := randomCounts(t)
		tr, err := New("obs", counts, Options{PriorVariance: 2, OutcomeBias: bias})
		if err != nil {
			t.Fatal(err)
		}
		r := rand.New(rand.NewSource(5))
		const offset = 3
		vec := make([]float64, offset+tr.NumParams())
		for i := offset; i < len(vec); i++ {
			vec[i] = r.NormFloat64()
		}
		tr.PushParameters(counts, vec, offset)
		grad := make([]float64, len(vec))
		tr.WriteGradient(grad, offset)
		for i := offset; i < len(vec); i++ {
			const eps = 1e-6
			theta := vec[i]
			vec[i] = theta + eps
			tr.PushParameters(counts, vec, offset)
			plus := tr.Value()
			vec[i] = theta - eps
			tr.PushParameters(counts, vec, offset)
			minus := tr.Value()
			vec[i] = theta
			numeric := (plus - minus) / (2 * eps)
			if math.Abs(numeric-grad[i]) > 1e-5 {
				t.Errorf("bias=%v %s: analytical %v numeric %v", bias, tr.FeatureLabel(i-offset), grad[i], numeric)
			}
		}
		for i := 0; i < offset; i++ {
			if grad[i] != 0 {
				t.Errorf("gradient written outside of block at %d", i)
			}
		}
	}
}

func TestParametersFromCountsIsMStep(t *testing.T) {
	counts := randomCounts(t)
	tr, err := New("trans", counts, Options{PriorVariance: 1, Smoothing: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	vec := make([]float64, tr.NumParams())
	tr.ParametersFromCounts(counts, vec, 0)
	tr.PushParameters(counts, vec, 0)
	probs := counts.NewLike()
	tr.CurrentMultinomial(probs)
	for c := 0; c < counts.Rows(); c++ {
		avail := counts.Available(c)
		total := counts.RowSum(c) + 0.5*float64(len(avail))
		for _, o := range avail {
			want := (counts.Get(c, o) + 0.5) / total
			if !scalar.EqualWithinAbsOrRel(probs.Get(c, o), want, 1e-12, 1e-12) {
				t.Errorf("p(%d|%d) = %v, want %v", o, c, probs.Get(c, o), want)
			}
		}
	}
}

func TestZeroWeightsUniform(t *testing.T) {
	shape := multinomial.New(2, 4)
	tr, err := New("init", shape, Options{PriorVariance: 1, OutcomeBias: true})
	if err != nil {
		t.Fatal(err)
	}
	if tr.NumParams() != 12 {
		t.Fatalf("expected 8 indicators and 4 biases, got %d", tr.NumParams())
	}
	tr.PushParameters(shape, make([]float64, tr.NumParams()), 0)
	out := shape.NewLike()
	tr.CurrentMultinomial(out)
	for _, v := range out.Values() {
		if math.Abs(v-0.25) > 1e-15 {
			t.Fatalf("expected uniform probabilities, got %v", out.Values())
		}
	}
	if tr.Value() != 0 {
		t.Errorf("zero counts and weights should have zero value, got %v", tr.Value())
	}
}

func TestFeatureLabel(t *testing.T) {
	shape, _ := multinomial.NewSparse(3, [][]int{{0, 2}, {}, {1}})
	tr, err := New("obs", shape, Options{
		PriorVariance:  1,
		OutcomeBias:    true,
		OutcomeLabel:   func(o int) string { return []string{"x", "y", "z"}[o] },
		ConditionLabel: func(c int) string { return "s" + string(rune('0'+c)) },
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"obs s0->x", "obs s0->z", "obs s2->y", "obs bias(x)", "obs bias(y)", "obs bias(z)"}
	for i, w := range want {
		if got := tr.FeatureLabel(i); got != w {
			t.Errorf("label %d = %q, want %q", i, got, w)
		}
	}
}

func TestNewRejectsPrior(t *testing.T) {
	if _, err := New("x", multinomial.New(1, 2), Options{}); err == nil {
		t.Errorf("expected error for zero prior variance")
	}
}
