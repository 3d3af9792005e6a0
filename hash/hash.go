// Package hash implements the xorshift modular hash used to pick reproducible
// pseudo random subsets, such as the coordinates probed by a gradient check.
package hash

// Hash mixes n with the salt s and reduces the result to [0, max).
func Hash(n uint32, s uint32, max uint32) uint32 {
	return uint32((uint64(mix(n, s)) * uint64(max)) >> 32)
}

func mix(n, s uint32) uint32 {
	// mixing stage, mix input with salt using subtraction
	var m = n - s

	// xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mixing stage 2
	return m + s
}

// Unit maps (n, s) to a number in [0, 1).
func Unit(n uint32, s uint32) float64 {
	return float64(mix(n, s)) / (1 << 32)
}

// Bernoulli reports true for roughly a fraction p of the indexes i. The same
// (i, seed) always gives the same answer.
func Bernoulli(i int, seed uint32, p float64) bool {
	if p >= 1 {
		return true
	}
	return Unit(uint32(i)*2654435761+1, seed) < p
}
