// Package algorithm provides update scaffolds that compose replay storage,
// return estimation, and lagged-network synchronization into the update
// disciplines shared by algorithm families. The scaffolds fix the ordering
// that learning stability depends on (full target sync before target values
// are read, Polyak averaging after the gradient step, priority refresh from
// the step's errors) while the gradient computation itself stays an opaque
// callback owned by the caller.
package algorithm

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	domainAlgorithm "github.com/colbyziyuwang/tianshou/internal/domain/algorithm"
	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	infraExploration "github.com/colbyziyuwang/tianshou/internal/infrastructure/exploration"
	infraLagged "github.com/colbyziyuwang/tianshou/internal/infrastructure/lagged"
	infraReplay "github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
	infraReturns "github.com/colbyziyuwang/tianshou/internal/infrastructure/returns"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// GradientStep performs one optimization step on the sampled batch and
// reports the per-row TD errors used to re-rank priorities. Returning a nil
// slice leaves priorities unchanged.
type GradientStep func(batch domainReplay.Batch, weights, targets []float64) ([]float64, error)

// OffPolicyUpdater drives the off-policy update discipline: sample a batch,
// compute bootstrapped n-step targets against a lagged network, run the
// caller's gradient step, then feed the observed errors back into the
// priority index. Target synchronization is either periodic (a full copy
// every TargetUpdateFreq steps, before target values are read) or
// continuous (a Polyak update after every step) depending on configuration.
type OffPolicyUpdater struct {
	mu sync.Mutex

	config      domainAlgorithm.OffPolicyConfig
	buffer      *infraReplay.Buffer
	prioritized *infraReplay.PrioritizedBuffer
	manager     *infraLagged.Manager
	estimator   *infraReturns.Estimator
	target      infraReturns.Valuer
	norm        *infraReturns.Normalizer
	noise       infraExploration.Noise
	steps       int64
	logger      zerolog.Logger
}

// NewOffPolicyUpdater creates an updater over a uniformly sampled buffer.
// Every batch row carries unit importance weight. The manager may be nil
// when the algorithm keeps no lagged network, and the target valuer may be
// nil to train on pure n-step reward sums.
func NewOffPolicyUpdater(
	config domainAlgorithm.OffPolicyConfig,
	buffer *infraReplay.Buffer,
	manager *infraLagged.Manager,
	target infraReturns.Valuer,
	logger zerolog.Logger,
) (*OffPolicyUpdater, error) {
	return newOffPolicyUpdater(config, buffer, nil, manager, target, logger)
}

// NewPrioritizedOffPolicyUpdater creates an updater over a prioritized
// buffer. Batches are drawn proportionally to priority, the gradient step
// receives the normalized importance weights, and the TD errors it returns
// re-rank the sampled rows.
func NewPrioritizedOffPolicyUpdater(
	config domainAlgorithm.OffPolicyConfig,
	buffer *infraReplay.PrioritizedBuffer,
	manager *infraLagged.Manager,
	target infraReturns.Valuer,
	logger zerolog.Logger,
) (*OffPolicyUpdater, error) {
	if buffer == nil {
		return nil, fmt.Errorf("%w: prioritized buffer", domainAlgorithm.ErrNilDependency)
	}
	return newOffPolicyUpdater(config, buffer.Buffer, buffer, manager, target, logger)
}

func newOffPolicyUpdater(
	config domainAlgorithm.OffPolicyConfig,
	buffer *infraReplay.Buffer,
	prioritized *infraReplay.PrioritizedBuffer,
	manager *infraLagged.Manager,
	target infraReturns.Valuer,
	logger zerolog.Logger,
) (*OffPolicyUpdater, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if buffer == nil {
		return nil, fmt.Errorf("%w: replay buffer", domainAlgorithm.ErrNilDependency)
	}

	estimator, err := infraReturns.NewEstimator(config.Returns, logger)
	if err != nil {
		return nil, err
	}
	norm, err := infraReturns.NewNormalizerFromConfig(config.Returns)
	if err != nil {
		return nil, err
	}

	u := &OffPolicyUpdater{
		config:      config,
		buffer:      buffer,
		prioritized: prioritized,
		manager:     manager,
		estimator:   estimator,
		target:      target,
		norm:        norm,
		logger:      logger.With().Str("component", "offpolicy_updater").Logger(),
	}

	u.logger.Info().
		Int("batch_size", config.BatchSize).
		Int("target_update_freq", config.TargetUpdateFreq).
		Bool("offline", config.Offline).
		Bool("prioritized", prioritized != nil).
		Msg("off-policy updater created")

	return u, nil
}

// WithNoise attaches an exploration noise source used by ExploreAction.
func (u *OffPolicyUpdater) WithNoise(noise infraExploration.Noise) {
	u.noise = noise
}

// Observe feeds one collected transition into the replay buffer. An
// updater configured as offline treats its buffer as a fixed dataset and
// rejects the write.
func (u *OffPolicyUpdater) Observe(transition domainReplay.Transition, envID int) (domainReplay.AddResult, error) {
	if u.config.Offline {
		return domainReplay.AddResult{}, domainAlgorithm.ErrOfflineUpdater
	}
	if u.prioritized != nil {
		return u.prioritized.Add(transition, envID)
	}
	return u.buffer.Add(transition, envID)
}

// ExploreAction perturbs a deterministic action with exploration noise.
// Outside training mode, or without an attached noise source, the action
// comes back unchanged. The input is never modified.
func (u *OffPolicyUpdater) ExploreAction(action []float64, mode shared.Mode) []float64 {
	out := make([]float64, len(action))
	copy(out, action)
	if mode != shared.ModeTrain || u.noise == nil || len(out) == 0 {
		return out
	}
	floats.Add(out, u.noise.Sample(len(out)))
	return out
}

// Update runs one step of the off-policy discipline, in order: periodic
// full target sync, batch sampling, n-step target computation, the
// caller's gradient step, priority refresh, and for TargetUpdateFreq zero
// a Polyak update after the step. Evaluation mode performs the same
// computation but mutates nothing: no sync, no priority refresh, no step
// counter advance, and the return normalization statistics are left where
// they were.
func (u *OffPolicyUpdater) Update(mode shared.Mode, step GradientStep) (domainAlgorithm.OffPolicyResult, error) {
	if !mode.Valid() {
		return domainAlgorithm.OffPolicyResult{}, fmt.Errorf("%w: %q", domainAlgorithm.ErrInvalidMode, mode)
	}
	if step == nil {
		return domainAlgorithm.OffPolicyResult{}, fmt.Errorf("%w: gradient step", domainAlgorithm.ErrNilDependency)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	train := mode == shared.ModeTrain
	result := domainAlgorithm.OffPolicyResult{Step: u.steps}

	// An evaluation pass must not advance the running statistics.
	if !train && u.norm != nil {
		saved := u.norm.Snapshot()
		defer func() { _ = u.norm.Restore(saved) }()
	}

	if train && u.manager != nil && u.config.TargetUpdateFreq > 0 &&
		u.steps%int64(u.config.TargetUpdateFreq) == 0 {
		if err := u.manager.FullUpdate(); err != nil {
			return result, err
		}
		result.Synced = true
	}

	indices, weights, err := u.sampleBatch()
	if err != nil {
		return result, err
	}

	targets, err := u.estimator.NStepReturn(u.buffer, indices, u.target, u.norm)
	if err != nil {
		return result, err
	}
	batch, err := u.buffer.Get(indices)
	if err != nil {
		return result, err
	}

	tdErrors, err := step(batch, weights, targets)
	if err != nil {
		return result, fmt.Errorf("gradient step: %w", err)
	}

	if train && u.prioritized != nil && tdErrors != nil {
		if len(tdErrors) != len(indices) {
			return result, fmt.Errorf("%w: %d td errors for %d rows",
				domainAlgorithm.ErrMismatchedNetworks, len(tdErrors), len(indices))
		}
		if err := u.prioritized.UpdatePriority(indices, tdErrors); err != nil {
			return result, err
		}
	}

	if train && u.manager != nil && u.config.TargetUpdateFreq == 0 {
		if err := u.manager.PolyakUpdate(); err != nil {
			return result, err
		}
	}

	if train {
		u.steps++
	}

	result.Indices = indices
	result.Weights = weights
	result.Targets = targets

	u.logger.Debug().
		Int64("step", result.Step).
		Int("batch", len(indices)).
		Bool("synced", result.Synced).
		Str("mode", string(mode)).
		Msg("off-policy update")

	return result, nil
}

// Steps returns the number of completed training steps.
func (u *OffPolicyUpdater) Steps() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.steps
}

// Private methods

func (u *OffPolicyUpdater) sampleBatch() ([]int, []float64, error) {
	if u.prioritized != nil {
		return u.prioritized.Sample(u.config.BatchSize)
	}

	indices, err := u.buffer.Sample(u.config.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	weights := make([]float64, len(indices))
	for i := range weights {
		weights[i] = 1
	}
	return indices, weights, nil
}
