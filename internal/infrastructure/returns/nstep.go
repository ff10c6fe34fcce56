package returns

import (
	"fmt"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	"github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
)

// NStepReturn computes the n-step bootstrapped target for each index: the
// discounted sum of up to NStep rewards plus gamma^m times the target
// value at the walk's endpoint, where m is how many steps were actually
// available. A terminated step ends the walk with no bootstrap; a
// truncated step or the write frontier ends the walk but keeps the
// bootstrap. A nil target skips bootstrapping entirely; a nil norm skips
// normalization.
func (e *Estimator) NStepReturn(buffer *replay.Buffer, indices []int, target Valuer, norm *Normalizer) ([]float64, error) {
	if len(indices) == 0 {
		return []float64{}, nil
	}
	for _, i := range indices {
		if !buffer.Stored(i) {
			return nil, fmt.Errorf("%w: index %d", domainReplay.ErrIndexOutOfRange, i)
		}
	}

	rewardSums := make([]float64, len(indices))
	discounts := make([]float64, len(indices))
	terminals := make([]int, len(indices))
	bootstrap := make([]bool, len(indices))

	for row, start := range indices {
		sum := 0.0
		discount := 1.0
		cur := start
		hitTerminated := false

		// cur stays on the last accumulated index, so the bootstrap reads
		// the value of that step's next observation.
		for k := 0; ; k++ {
			sum += discount * buffer.Reward(cur)
			discount *= e.config.Gamma
			if buffer.Terminated(cur) {
				hitTerminated = true
				break
			}
			if buffer.Truncated(cur) || k == e.config.NStep-1 {
				break
			}
			next := buffer.Next(cur)
			if next == cur {
				break // unfinished frontier
			}
			cur = next
		}

		rewardSums[row] = sum
		discounts[row] = discount
		terminals[row] = cur
		bootstrap[row] = !hitTerminated
	}

	targets := make([]float64, len(indices))
	copy(targets, rewardSums)

	if target != nil {
		values, err := EvaluateChunked(target, buffer, terminals, e.config.MaxBatchSize)
		if err != nil {
			return nil, err
		}
		for row := range targets {
			if bootstrap[row] {
				targets[row] += discounts[row] * values[row]
			}
		}
	}

	if norm != nil {
		norm.Apply(targets)
	}
	return targets, nil
}
