package objective

import (
	"math"
	"sync/atomic"

	"github.com/neurlang/hmmgrad/counts"
	"github.com/neurlang/hmmgrad/parallel"
)

// expectation clears the count table and refills it from every sentence under
// the probabilities currently installed in the model. The returned evaluation
// carries the negative log-likelihood, or +Inf and the failure if inference
// broke down, in which case the remaining sentences are skipped.
func (o *Objective[S]) expectation() Evaluation {
	dists := o.model.SentenceDists()
	if o.opts.Workers > 1 && len(dists) > 1 {
		return o.shardedExpectation(dists)
	}
	return o.sequentialExpectation(dists)
}

func (o *Objective[S]) sequentialExpectation(dists []S) Evaluation {
	o.counts.Clear()
	var ev Evaluation
	for i, sd := range dists {
		ll, err := o.sentence(sd, o.counts)
		if err != nil {
			ev.NegLogLikelihood = math.Inf(1)
			ev.Failure = o.fail(i, err)
			return ev
		}
		ev.NegLogLikelihood -= ll
	}
	return ev
}

// sentence runs inference on one sentence and adds its expected counts to ct.
// The caches of sd are released whatever happens.
func (o *Objective[S]) sentence(sd S, ct *counts.Table) (float64, error) {
	sd.Init()
	defer func() {
		sd.ClearCaches()
		sd.ClearPosteriors()
	}()
	if err := o.model.ComputePosteriors(sd); err != nil {
		return 0, err
	}
	o.model.AddToCounts(sd, ct)
	return sd.LogLikelihood(), nil
}

// shardedExpectation splits the sentences into contiguous shards, one per
// worker, each with its own count table. Shards are merged and their
// log-likelihoods summed in shard order, so the result does not depend on
// scheduling. A failure stops every shard at its next sentence and the pass is
// replayed sequentially, so the reported sentence and counts are those of the
// first failing sentence in corpus order.
func (o *Objective[S]) shardedExpectation(dists []S) Evaluation {
	ranges := parallel.Shards(len(dists), o.opts.Workers)
	for len(o.shards) < len(ranges) {
		o.shards = append(o.shards, o.counts.NewLike())
	}
	nll := make([]float64, len(ranges))
	var stop atomic.Bool
	parallel.ForEach(len(ranges), len(ranges), func(k int) {
		ct := o.shards[k]
		ct.Clear()
		for i := ranges[k][0]; i < ranges[k][1]; i++ {
			if stop.Load() {
				return
			}
			ll, err := o.sentence(dists[i], ct)
			if err != nil {
				stop.Store(true)
				return
			}
			nll[k] -= ll
		}
	})

	if stop.Load() {
		return o.sequentialExpectation(dists)
	}
	var ev Evaluation
	o.counts.Clear()
	for k := range ranges {
		o.counts.Add(o.shards[k])
		ev.NegLogLikelihood += nll[k]
	}
	return ev
}
