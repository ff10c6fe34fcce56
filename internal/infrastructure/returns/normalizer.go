package returns

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
	infraStats "github.com/colbyziyuwang/tianshou/internal/infrastructure/stats"
)

// Normalizer scales return batches by the running standard deviation of
// every batch seen before them. Statistics always lag one batch: a batch
// is normalized with the aggregate of its predecessors, then folded in
// raw, so no batch is ever scaled by its own moments. SubtractMean
// additionally centers on the running mean; advantage-based methods
// usually leave it off because the baseline already absorbs the offset.
type Normalizer struct {
	stats        *infraStats.RunningStats
	subtractMean bool
	epsilon      float64
}

// NewNormalizer creates a return normalizer. epsilon floors the variance
// before it is used as a divisor and must be positive.
func NewNormalizer(subtractMean bool, epsilon float64) (*Normalizer, error) {
	if epsilon <= 0 {
		return nil, fmt.Errorf("%w: %v", domainReturns.ErrInvalidEpsilonVar, epsilon)
	}
	return &Normalizer{
		stats:        infraStats.NewRunningStats(),
		subtractMean: subtractMean,
		epsilon:      epsilon,
	}, nil
}

// NewNormalizerFromConfig creates a normalizer for an estimation
// configuration, or nil when normalization is disabled.
func NewNormalizerFromConfig(config domainReturns.Config) (*Normalizer, error) {
	if !config.Normalize {
		return nil, nil
	}
	return NewNormalizer(config.SubtractMean, config.EpsilonVar)
}

// Scale returns sqrt(var+epsilon) over the batches observed so far.
func (n *Normalizer) Scale() float64 {
	return math.Sqrt(n.stats.Var() + n.epsilon)
}

// Apply normalizes values in place using the statistics of earlier
// batches only, then folds the raw values into the running statistics.
func (n *Normalizer) Apply(values []float64) {
	if len(values) == 0 {
		return
	}
	raw := append([]float64(nil), values...)

	if n.subtractMean {
		floats.AddConst(-n.stats.Mean(), values)
	}
	floats.Scale(1/n.Scale(), values)

	n.stats.Update(raw)
}

// Unnormalize maps normalized values back to the raw return scale in
// place, using the current statistics without updating them.
func (n *Normalizer) Unnormalize(values []float64) {
	floats.Scale(n.Scale(), values)
	if n.subtractMean {
		floats.AddConst(n.stats.Mean(), values)
	}
}

// Stats exposes the underlying running statistics for persistence.
func (n *Normalizer) Stats() *infraStats.RunningStats {
	return n.stats
}

// Snapshot captures the normalizer's statistics.
func (n *Normalizer) Snapshot() domainStats.Snapshot {
	return n.stats.Snapshot()
}

// Restore replaces the normalizer's statistics with a snapshot.
func (n *Normalizer) Restore(snapshot domainStats.Snapshot) error {
	return n.stats.Restore(snapshot)
}

// Reset clears the accumulated statistics.
func (n *Normalizer) Reset() {
	n.stats.Reset()
}
