package hmm

import "math"

// Decode returns the most probable state sequence of words under the current
// probabilities, and its log probability.
func (m *Model) Decode(words []int) ([]int, float64) {
	T := len(words)
	if T == 0 {
		return nil, 0
	}
	S := m.States
	score := make([]float64, T*S)
	back := make([]int, T*S)
	for s := 0; s < S; s++ {
		score[s] = math.Log(m.initial.Get(0, s)) + math.Log(m.observation.Get(s, words[0]))
	}
	for t := 1; t < T; t++ {
		for s := 0; s < S; s++ {
			best, arg := math.Inf(-1), 0
			for r := 0; r < S; r++ {
				v := score[(t-1)*S+r] + math.Log(m.transition.Get(r, s))
				if v > best {
					best, arg = v, r
				}
			}
			score[t*S+s] = best + math.Log(m.observation.Get(s, words[t]))
			back[t*S+s] = arg
		}
	}
	path := make([]int, T)
	best := math.Inf(-1)
	for s := 0; s < S; s++ {
		if v := score[(T-1)*S+s]; v > best {
			best, path[T-1] = v, s
		}
	}
	for t := T - 1; t > 0; t-- {
		path[t-1] = back[t*S+path[t]]
	}
	return path, best
}
