package parallel

import "sync/atomic"
import "testing"

func TestForEach(t *testing.T) {
	var seen [1000]atomic.Int32
	ForEach(len(seen), 7, func(i int) {
		seen[i].Add(1)
	})
	for i := range seen {
		if seen[i].Load() != 1 {
			t.Fatalf("index %d visited %d times", i, seen[i].Load())
		}
	}
	ForEach(0, 3, func(int) { t.Errorf("body called for empty loop") })
}

func TestShards(t *testing.T) {
	for _, c := range [][2]int{{10, 3}, {3, 10}, {1, 1}, {100, 7}, {5, 0}} {
		shards := Shards(c[0], c[1])
		next := 0
		for _, s := range shards {
			if s[0] != next || s[1] <= s[0] {
				t.Fatalf("Shards(%d, %d) = %v not contiguous", c[0], c[1], shards)
			}
			next = s[1]
		}
		if next != c[0] {
			t.Errorf("Shards(%d, %d) = %v does not cover", c[0], c[1], shards)
		}
	}
	if Shards(0, 4) != nil {
		t.Errorf("empty length should give no shards")
	}
}

func TestWorkers(t *testing.T) {
	if Workers() < 1 {
		t.Errorf("at least one worker expected")
	}
}
