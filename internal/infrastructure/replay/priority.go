package replay

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
)

// PriorityIndex assigns a sampling priority and an importance weight to
// every slot of a buffer's index space. Priorities live in a sum tree, so
// updating one slot and drawing one index are both O(log n). The tree leaf
// sum always equals the sum of all current priorities.
type PriorityIndex struct {
	tree  *sumTree
	alpha float64
	beta  float64
	eps   float64

	// maxPriority is the largest raw (pre-exponent) priority observed, so
	// fresh slots enter at the front of the sampling queue instead of being
	// starved before their first evaluation.
	maxPriority float64
}

// NewPriorityIndex creates a priority index over size slots.
func NewPriorityIndex(size int, alpha, beta, eps float64) (*PriorityIndex, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("%w: alpha %v", domainReplay.ErrInvalidAlpha, alpha)
	}
	if beta < 0 {
		return nil, fmt.Errorf("%w: beta %v", domainReplay.ErrInvalidBeta, beta)
	}
	if eps < 0 {
		return nil, fmt.Errorf("%w: epsilon %v", domainReplay.ErrInvalidEpsilon, eps)
	}
	return &PriorityIndex{
		tree:        newSumTree(size),
		alpha:       alpha,
		beta:        beta,
		eps:         eps,
		maxPriority: 1.0,
	}, nil
}

// InsertMax sets slot i to the current maximum priority. Called when a
// transition is written (or overwritten) into slot i.
func (p *PriorityIndex) InsertMax(i int) {
	p.tree.update(i, math.Pow(p.maxPriority, p.alpha))
}

// UpdatePriority recomputes priority[i] = (|errors[i]|+eps)^alpha for each
// paired index and writes the tree.
func (p *PriorityIndex) UpdatePriority(indices []int, errors []float64) error {
	if len(indices) != len(errors) {
		return fmt.Errorf("%w: %d indices, %d errors", domainReplay.ErrMalformedBatch, len(indices), len(errors))
	}
	for row, i := range indices {
		raw := math.Abs(errors[row]) + p.eps
		p.tree.update(i, math.Pow(raw, p.alpha))
		if raw > p.maxPriority {
			p.maxPriority = raw
		}
	}
	return nil
}

// SetBeta replaces the importance-sampling exponent. Training schedules
// typically anneal beta upward toward 1.
func (p *PriorityIndex) SetBeta(beta float64) error {
	if beta < 0 {
		return fmt.Errorf("%w: beta %v", domainReplay.ErrInvalidBeta, beta)
	}
	p.beta = beta
	return nil
}

// Sum returns the total priority mass.
func (p *PriorityIndex) Sum() float64 {
	return p.tree.sum()
}

// Priority returns the stored (exponentiated) priority of slot i.
func (p *PriorityIndex) Priority(i int) float64 {
	return p.tree.get(i)
}

// Draw samples one slot with probability proportional to its priority.
// The caller guarantees Sum() > 0.
func (p *PriorityIndex) Draw(rng *rand.Rand) int {
	return p.tree.prefixSumIndex(rng.Float64() * p.tree.sum())
}

// Weights returns the normalized importance weight of each index:
// (total * P(i))^-beta, divided by the batch maximum so the largest
// effective learning-rate scaling is exactly 1. Zero-probability slots are
// floored to weight 1 rather than propagating an infinity.
func (p *PriorityIndex) Weights(indices []int, total int) []float64 {
	weights := make([]float64, len(indices))
	sum := p.tree.sum()
	if sum <= 0 || total == 0 {
		for row := range weights {
			weights[row] = 1
		}
		return weights
	}

	for row, i := range indices {
		prob := p.tree.get(i) / sum
		if prob <= 0 {
			weights[row] = 1
			continue
		}
		weights[row] = math.Pow(float64(total)*prob, -p.beta)
	}

	maxWeight := floats.Max(weights)
	if maxWeight > 0 {
		floats.Scale(1/maxWeight, weights)
	}
	return weights
}

// Leaves returns a copy of the first size exponentiated priorities for
// persistence.
func (p *PriorityIndex) Leaves(size int) []float64 {
	return p.tree.leaves(size)
}

// MaxPriority returns the largest raw priority observed so far.
func (p *PriorityIndex) MaxPriority() float64 {
	return p.maxPriority
}

// Restore replaces the leaf array and the running maximum.
func (p *PriorityIndex) Restore(leaves []float64, maxPriority float64) {
	p.tree.setLeaves(leaves)
	if maxPriority > 0 {
		p.maxPriority = maxPriority
	}
}
