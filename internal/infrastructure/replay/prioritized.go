package replay

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
)

// PrioritizedBuffer layers a PriorityIndex over a Buffer. New transitions
// enter at the current maximum priority so they are sampled at least once
// before their error is known; UpdatePriority then re-ranks them from
// observed errors. Sampling draws with replacement proportionally to
// priority and returns normalized importance weights alongside the indices.
type PrioritizedBuffer struct {
	*Buffer

	mu     sync.Mutex
	config domainReplay.PrioritizedConfig
	index  *PriorityIndex
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewPrioritizedBuffer creates a prioritized buffer with the given
// configuration. Pass zerolog.Nop() to disable logging.
func NewPrioritizedBuffer(config domainReplay.PrioritizedConfig, logger zerolog.Logger) (*PrioritizedBuffer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	buffer, err := NewBuffer(config.Config, logger)
	if err != nil {
		return nil, err
	}

	total := config.Capacity * config.EnvNum
	index, err := NewPriorityIndex(total, config.Alpha, config.Beta, config.EpsilonPriority)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &PrioritizedBuffer{
		Buffer: buffer,
		config: config,
		index:  index,
		rng:    rand.New(rand.NewSource(seed + 1)),
		logger: logger.With().Str("component", "prioritized_replay_buffer").Logger(),
	}, nil
}

// Add writes one transition and registers its slot at the current maximum
// priority.
func (p *PrioritizedBuffer) Add(transition domainReplay.Transition, envID int) (domainReplay.AddResult, error) {
	result, err := p.Buffer.Add(transition, envID)
	if err != nil {
		return result, err
	}

	p.mu.Lock()
	p.index.InsertMax(result.Index)
	p.mu.Unlock()
	return result, nil
}

// Sample draws batchSize stored indices with probability proportional to
// priority and returns them with their normalized importance weights.
// Draws are independent, so an index may repeat; that keeps sampling well
// defined when batchSize exceeds the stored count. An all-zero priority
// mass degrades to uniform draws with unit weights.
func (p *PrioritizedBuffer) Sample(batchSize int) ([]int, []float64, error) {
	if batchSize <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", domainReplay.ErrInvalidBatchSize, batchSize)
	}
	stored := p.Buffer.Len()
	if stored == 0 {
		return nil, nil, fmt.Errorf("%w: buffer is empty", domainReplay.ErrInsufficientData)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	indices := make([]int, batchSize)
	if p.index.Sum() <= 0 {
		valid := p.Buffer.StoredIndices()
		weights := make([]float64, batchSize)
		for j := range indices {
			indices[j] = valid[p.rng.Intn(len(valid))]
			weights[j] = 1
		}
		return indices, weights, nil
	}

	for j := range indices {
		idx := p.index.Draw(p.rng)
		if !p.Buffer.Stored(idx) {
			// A prefix landed exactly on a zero leaf boundary; fall back
			// to a uniform stored pick for this draw.
			valid := p.Buffer.StoredIndices()
			idx = valid[p.rng.Intn(len(valid))]
		}
		indices[j] = idx
	}

	return indices, p.index.Weights(indices, stored), nil
}

// UpdatePriority recomputes the priority of each paired index from its
// observed error: priority = (|error|+eps)^alpha.
func (p *PrioritizedBuffer) UpdatePriority(indices []int, tdErrors []float64) error {
	if len(indices) != len(tdErrors) {
		return fmt.Errorf("%w: %d indices, %d errors", domainReplay.ErrMalformedBatch, len(indices), len(tdErrors))
	}
	for _, i := range indices {
		if !p.Buffer.Stored(i) {
			return fmt.Errorf("%w: index %d", domainReplay.ErrIndexOutOfRange, i)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index.UpdatePriority(indices, tdErrors)
}

// SetBeta replaces the importance-sampling exponent, typically annealed
// toward 1 over training.
func (p *PrioritizedBuffer) SetBeta(beta float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index.SetBeta(beta)
}

// Reset clears the buffer and the priority mass.
func (p *PrioritizedBuffer) Reset() {
	p.Buffer.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	total := p.config.Capacity * p.config.EnvNum
	p.index.Restore(make([]float64, total), 1.0)
}

// Snapshot returns a deep copy of the buffer state plus the priority
// tree's leaf array.
func (p *PrioritizedBuffer) Snapshot() *domainReplay.PrioritySnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.config.Capacity * p.config.EnvNum
	return &domainReplay.PrioritySnapshot{
		Buffer:      *p.Buffer.Snapshot(),
		Leaves:      p.index.Leaves(total),
		MaxPriority: p.index.MaxPriority(),
	}
}

// Restore replaces the buffer and priority state with a snapshot taken
// from a buffer of identical geometry.
func (p *PrioritizedBuffer) Restore(snapshot *domainReplay.PrioritySnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domainReplay.ErrSnapshotMismatch)
	}
	if err := p.Buffer.Restore(&snapshot.Buffer); err != nil {
		return err
	}

	total := p.config.Capacity * p.config.EnvNum
	if len(snapshot.Leaves) != total {
		return fmt.Errorf("%w: %d leaves for %d slots", domainReplay.ErrSnapshotMismatch, len(snapshot.Leaves), total)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.index.Restore(snapshot.Leaves, snapshot.MaxPriority)
	p.logger.Debug().Float64("max_priority", snapshot.MaxPriority).Msg("priority state restored")
	return nil
}
