package hash

import (
	"testing"
)

// performance benchmark
func BenchmarkBernoulli(b *testing.B) {
	var n int
	for i := 0; i < b.N; i++ {
		if Bernoulli(i, 0, 0.01) {
			n++
		}
	}
	_ = n
}

// range test
func TestHashRange(t *testing.T) {
	for max := uint32(1); max <= 1<<20; max <<= 3 {
		for n := uint32(0); n < 1000; n++ {
			if out := Hash(n, 17, max); out >= max {
				t.Fatalf("Hash(%d, 17, %d) == %d out of range", n, max, out)
			}
		}
	}
	if Hash(5, 5, 0) != 0 {
		t.Errorf("max=0 should give 0")
	}
}

// sampling rate test
func TestBernoulliRate(t *testing.T) {
	const length = 200000
	const budget = 100
	var picked int
	for i := 0; i < length; i++ {
		if Bernoulli(i, 0, budget/float64(length)) {
			picked++
		}
	}
	if picked < budget/2 || picked > 2*budget {
		t.Errorf("picked %d of %d, expected about %d", picked, length, budget)
	}
	for i := 0; i < 100; i++ {
		if Bernoulli(i, 9, 0.5) != Bernoulli(i, 9, 0.5) {
			t.Fatalf("Bernoulli is not deterministic")
		}
		if !Bernoulli(i, 9, 1) {
			t.Fatalf("p=1 must select everything")
		}
	}
}

// sanity check fuzz
func FuzzUnit(f *testing.F) {
	f.Add(uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s uint32) {
		if u := Unit(n, s); u < 0 || u >= 1 {
			t.Errorf("Unit(%d, %d) == %v out of [0,1)", n, s, u)
		}
	})
}
