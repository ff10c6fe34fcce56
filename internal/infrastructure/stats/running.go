// Package stats provides online statistics infrastructure.
package stats

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
)

// RunningStats maintains a streaming mean/variance aggregate over batches of
// scalars. Batches are merged with the parallel Welford update, so the
// aggregate is the same no matter how a stream is chunked. It is used to
// normalize returns with statistics that lag one batch behind the batch
// being normalized.
type RunningStats struct {
	mu    sync.RWMutex
	count float64
	mean  float64
	m2    float64
}

// NewRunningStats creates an empty aggregate.
func NewRunningStats() *RunningStats {
	return &RunningStats{}
}

// Update merges a batch of scalars into the aggregate. Empty batches are
// no-ops.
func (r *RunningStats) Update(batch []float64) {
	if len(batch) == 0 {
		return
	}

	batchCount := float64(len(batch))
	batchMean := stat.Mean(batch, nil)
	var batchM2 float64
	for _, x := range batch {
		d := x - batchMean
		batchM2 += d * d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		r.count = batchCount
		r.mean = batchMean
		r.m2 = batchM2
		return
	}

	delta := batchMean - r.mean
	total := r.count + batchCount
	r.mean += delta * batchCount / total
	r.m2 += batchM2 + delta*delta*r.count*batchCount/total
	r.count = total
}

// Mean returns the running mean, zero before any update.
func (r *RunningStats) Mean() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mean
}

// Var returns the population variance M2/count, zero before any update.
// The estimator never clamps: callers floor the variance with an epsilon
// wherever it is used as a divisor.
func (r *RunningStats) Var() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		return 0
	}
	return r.m2 / r.count
}

// Std returns the population standard deviation.
func (r *RunningStats) Std() float64 {
	return math.Sqrt(r.Var())
}

// Count returns the number of samples absorbed so far.
func (r *RunningStats) Count() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Snapshot returns the persistable (count, mean, M2) state.
func (r *RunningStats) Snapshot() domainStats.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domainStats.Snapshot{Count: r.count, Mean: r.mean, M2: r.m2}
}

// Restore replaces the aggregate with snapshot state.
func (r *RunningStats) Restore(snapshot domainStats.Snapshot) error {
	if snapshot.Count < 0 || snapshot.M2 < 0 {
		return fmt.Errorf("%w: count %v, m2 %v", domainStats.ErrInvalidSnapshot, snapshot.Count, snapshot.M2)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = snapshot.Count
	r.mean = snapshot.Mean
	r.m2 = snapshot.M2
	return nil
}

// Reset clears the aggregate.
func (r *RunningStats) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = 0
	r.mean = 0
	r.m2 = 0
}
