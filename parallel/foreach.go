// Package parallel contains the bounded fan-out used by the sharded expectation pass.
package parallel

import "runtime"
import "sync"

import "github.com/klauspost/cpuid/v2"

// ForEach calls body for every integer from 0 to length-1 using at most limit
// goroutines. It returns when all calls have returned.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return // No iterations to perform
	}
	if limit > length {
		limit = length
	}

	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(limit)
	for n := 0; n < limit; n++ {
		go func() {
			defer wg.Done()
			for i := range next {
				body(i)
			}
		}()
	}
	for i := 0; i < length; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}

// Shards splits [0, length) into at most n contiguous, non-empty ranges of
// nearly equal size, in order.
func Shards(length, n int) (out [][2]int) {
	if length <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if n > length {
		n = length
	}
	lo := 0
	for k := 0; k < n; k++ {
		hi := lo + (length-lo)/(n-k)
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}

// Workers returns the number of hardware threads, as reported by cpuid, or by
// the runtime when the CPU topology is unknown.
func Workers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
