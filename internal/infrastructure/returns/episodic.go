package returns

import (
	"fmt"

	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
	"github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
)

// MonteCarloReturn computes the full discounted return of every index in a
// chronologically ordered batch. Truncated cutoffs and unfinished frontier
// tails bootstrap the missing future from the supplied valuer; terminated
// steps end their episode with no bootstrap. A nil tail scores unwitnessed
// futures as zero, which is exact only for episodes that actually ended.
func (e *Estimator) MonteCarloReturn(buffer *replay.Buffer, indices []int, tail Valuer, norm *Normalizer) ([]float64, error) {
	if len(indices) == 0 {
		return []float64{}, nil
	}
	batch, err := buffer.Get(indices)
	if err != nil {
		return nil, err
	}
	unfinished := unfinishedSet(buffer)
	endFlag := endFlags(buffer, indices, batch, unfinished)

	// Only positions that cut an episode short carry a tail estimate. The
	// telescoped recursion would double-count any other nonzero entry.
	vSNext := make([]float64, len(indices))
	if tail != nil {
		cut := make([]int, 0)
		rows := make([]int, 0)
		for t, i := range indices {
			if batch.Truncated[t] || unfinished[i] {
				cut = append(cut, i)
				rows = append(rows, t)
			}
		}
		if len(cut) > 0 {
			values, err := EvaluateChunked(tail, buffer, cut, e.config.MaxBatchSize)
			if err != nil {
				return nil, err
			}
			for j, t := range rows {
				vSNext[t] = values[j]
			}
		}
	}

	rets := gaeReturn(make([]float64, len(indices)), vSNext, batch.Rew, endFlag, e.config.Gamma, 1.0)
	if norm != nil {
		norm.Apply(rets)
	}
	return rets, nil
}

// EpisodicReturn computes GAE advantages and lambda-returns for a batch of
// chronologically ordered indices. vS and vSNext hold the caller's value
// estimates for each index's observation and next observation, evaluated
// in chunks of at most MaxBatchSize by the caller. vSNext is masked to
// zero at terminated positions before the residual is formed, so truncated
// episodes keep their bootstrap while terminated ones cannot leak one.
//
// With a Normalizer the incoming values are assumed normalized: they are
// mapped back to the raw return scale first, the residuals computed there,
// and the final returns normalized again, so normalization never changes
// what the residual means. Advantages are always returned on the raw
// scale.
func (e *Estimator) EpisodicReturn(buffer *replay.Buffer, indices []int, vS, vSNext []float64, norm *Normalizer) ([]float64, []float64, error) {
	if len(vS) != len(indices) || len(vSNext) != len(indices) {
		return nil, nil, fmt.Errorf("%w: %d indices, %d state values, %d next values",
			domainReturns.ErrMalformedBatch, len(indices), len(vS), len(vSNext))
	}
	if len(indices) == 0 {
		return []float64{}, []float64{}, nil
	}
	batch, err := buffer.Get(indices)
	if err != nil {
		return nil, nil, err
	}
	endFlag := endFlags(buffer, indices, batch, unfinishedSet(buffer))

	values := append([]float64(nil), vS...)
	nextValues := append([]float64(nil), vSNext...)
	if norm != nil {
		norm.Unnormalize(values)
		norm.Unnormalize(nextValues)
	}
	for t := range nextValues {
		if batch.Terminated[t] {
			nextValues[t] = 0
		}
	}

	advantages := gaeReturn(values, nextValues, batch.Rew, endFlag, e.config.Gamma, e.config.Lambda)
	rets := make([]float64, len(indices))
	for t := range rets {
		rets[t] = values[t] + advantages[t]
	}
	if norm != nil {
		norm.Apply(rets)
	}
	return rets, advantages, nil
}

// unfinishedSet returns the buffer's unfinished frontier indices as a set.
func unfinishedSet(buffer *replay.Buffer) map[int]bool {
	set := make(map[int]bool)
	for _, i := range buffer.UnfinishedIndex() {
		set[i] = true
	}
	return set
}
