package algorithm

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	domainAlgorithm "github.com/colbyziyuwang/tianshou/internal/domain/algorithm"
	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	infraLagged "github.com/colbyziyuwang/tianshou/internal/infrastructure/lagged"
	infraReplay "github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
	infraReturns "github.com/colbyziyuwang/tianshou/internal/infrastructure/returns"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// advantageEpsilon keeps per-batch advantage standardization finite when a
// batch has near-zero spread.
const advantageEpsilon = 1e-8

// Critic estimates the state value of each observation. Implementations
// receive at most MaxBatchSize observations per call.
type Critic interface {
	Value(obs [][]float32) ([]float64, error)
}

// PolicyStep performs one optimization pass over the full on-policy batch.
type PolicyStep func(batch domainReplay.Batch, returns, advantages []float64) error

// ActorCriticUpdater drives the on-policy update discipline: consume every
// stored transition in chronological order, turn critic values into
// lambda-returns and advantage estimates, run the caller's optimization
// pass, then apply a Polyak update to any lagged networks and clear the
// buffer for the next collection phase.
type ActorCriticUpdater struct {
	mu sync.Mutex

	config    domainAlgorithm.ActorCriticConfig
	buffer    *infraReplay.Buffer
	manager   *infraLagged.Manager
	estimator *infraReturns.Estimator
	critic    Critic
	norm      *infraReturns.Normalizer
	steps     int64
	logger    zerolog.Logger
}

// NewActorCriticUpdater creates an updater over the given buffer. The
// critic is required; the manager may be nil when the algorithm keeps no
// lagged network.
func NewActorCriticUpdater(
	config domainAlgorithm.ActorCriticConfig,
	buffer *infraReplay.Buffer,
	manager *infraLagged.Manager,
	critic Critic,
	logger zerolog.Logger,
) (*ActorCriticUpdater, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if buffer == nil {
		return nil, fmt.Errorf("%w: replay buffer", domainAlgorithm.ErrNilDependency)
	}
	if critic == nil {
		return nil, fmt.Errorf("%w: critic", domainAlgorithm.ErrNilDependency)
	}

	estimator, err := infraReturns.NewEstimator(config.Returns, logger)
	if err != nil {
		return nil, err
	}
	norm, err := infraReturns.NewNormalizerFromConfig(config.Returns)
	if err != nil {
		return nil, err
	}

	u := &ActorCriticUpdater{
		config:    config,
		buffer:    buffer,
		manager:   manager,
		estimator: estimator,
		critic:    critic,
		norm:      norm,
		logger:    logger.With().Str("component", "actorcritic_updater").Logger(),
	}

	u.logger.Info().
		Float64("gamma", config.Returns.Gamma).
		Float64("lambda", config.Returns.Lambda).
		Bool("normalize_advantages", config.NormalizeAdvantages).
		Msg("actor-critic updater created")

	return u, nil
}

// Observe feeds one collected transition into the replay buffer.
func (u *ActorCriticUpdater) Observe(transition domainReplay.Transition, envID int) (domainReplay.AddResult, error) {
	return u.buffer.Add(transition, envID)
}

// Preprocess computes lambda-returns and advantages for the given indices
// using the critic, running the full training normalization protocol.
func (u *ActorCriticUpdater) Preprocess(indices []int) ([]float64, []float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	_, rets, advs, err := u.preprocessLocked(indices)
	return rets, advs, err
}

// Update runs one pass of the on-policy discipline, in order: advantage
// preprocessing over the whole buffer, the caller's optimization pass, a
// Polyak update of any lagged networks, and the buffer reset. Evaluation
// mode performs the same computation but mutates nothing.
func (u *ActorCriticUpdater) Update(mode shared.Mode, step PolicyStep) (domainAlgorithm.OnPolicyResult, error) {
	if !mode.Valid() {
		return domainAlgorithm.OnPolicyResult{}, fmt.Errorf("%w: %q", domainAlgorithm.ErrInvalidMode, mode)
	}
	if step == nil {
		return domainAlgorithm.OnPolicyResult{}, fmt.Errorf("%w: policy step", domainAlgorithm.ErrNilDependency)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	train := mode == shared.ModeTrain
	result := domainAlgorithm.OnPolicyResult{Step: u.steps}

	// An evaluation pass must not advance the running statistics.
	if !train && u.norm != nil {
		saved := u.norm.Snapshot()
		defer func() { _ = u.norm.Restore(saved) }()
	}

	indices := u.buffer.ChronologicalIndices()
	if len(indices) == 0 {
		return result, fmt.Errorf("%w: buffer is empty", domainReplay.ErrInsufficientData)
	}

	batch, rets, advs, err := u.preprocessLocked(indices)
	if err != nil {
		return result, err
	}

	if u.config.NormalizeAdvantages && len(advs) > 0 {
		mean, std := stat.MeanStdDev(advs, nil)
		if math.IsNaN(std) {
			std = 0
		}
		floats.AddConst(-mean, advs)
		floats.Scale(1/(std+advantageEpsilon), advs)
	}

	if err := step(batch, rets, advs); err != nil {
		return result, fmt.Errorf("policy step: %w", err)
	}

	if train && u.manager != nil {
		if err := u.manager.PolyakUpdate(); err != nil {
			return result, err
		}
	}
	if train && u.config.ResetBufferAfterUpdate {
		u.buffer.Reset()
	}
	if train {
		u.steps++
	}

	result.Indices = indices
	result.Returns = rets
	result.Advantages = advs

	u.logger.Debug().
		Int64("step", result.Step).
		Int("batch", len(indices)).
		Str("mode", string(mode)).
		Msg("actor-critic update")

	return result, nil
}

// Steps returns the number of completed training passes.
func (u *ActorCriticUpdater) Steps() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.steps
}

// Private methods

func (u *ActorCriticUpdater) preprocessLocked(indices []int) (domainReplay.Batch, []float64, []float64, error) {
	batch, err := u.buffer.Get(indices)
	if err != nil {
		return domainReplay.Batch{}, nil, nil, err
	}

	vS, err := u.criticValues(batch.Obs)
	if err != nil {
		return batch, nil, nil, err
	}
	vSNext, err := u.criticValues(batch.ObsNext)
	if err != nil {
		return batch, nil, nil, err
	}

	rets, advs, err := u.estimator.EpisodicReturn(u.buffer, indices, vS, vSNext, u.norm)
	if err != nil {
		return batch, nil, nil, err
	}
	return batch, rets, advs, nil
}

func (u *ActorCriticUpdater) criticValues(obs [][]float32) ([]float64, error) {
	values := make([]float64, 0, len(obs))
	for _, r := range shared.ChunkRanges(len(obs), u.config.Returns.MaxBatchSize) {
		chunk, err := u.critic.Value(obs[r[0]:r[1]])
		if err != nil {
			return nil, fmt.Errorf("critic values [%d, %d): %w", r[0], r[1], err)
		}
		if len(chunk) != r[1]-r[0] {
			return nil, fmt.Errorf("%w: critic returned %d values for %d observations",
				domainAlgorithm.ErrMismatchedNetworks, len(chunk), r[1]-r[0])
		}
		values = append(values, chunk...)
	}
	return values, nil
}
