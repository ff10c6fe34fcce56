// Package tianshou provides the public API for the tianshou
// reinforcement-learning core: replay storage, return and advantage
// estimation, lagged-network synchronization, running statistics, and the
// update scaffolds that compose them.
//
// Example:
//
//	buffer, err := tianshou.NewBuffer(tianshou.DefaultBufferConfig(), zerolog.Nop())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	estimator, err := tianshou.NewEstimator(tianshou.DefaultReturnConfig(), zerolog.Nop())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... collect transitions via buffer.Add, then:
//	indices, _ := buffer.Sample(64)
//	targets, err := estimator.NStepReturn(buffer, indices, target, nil)
package tianshou

import (
	"github.com/rs/zerolog"

	applicationAlgorithm "github.com/colbyziyuwang/tianshou/internal/application/algorithm"
	domainAlgorithm "github.com/colbyziyuwang/tianshou/internal/domain/algorithm"
	domainCheckpoint "github.com/colbyziyuwang/tianshou/internal/domain/checkpoint"
	domainExploration "github.com/colbyziyuwang/tianshou/internal/domain/exploration"
	domainLagged "github.com/colbyziyuwang/tianshou/internal/domain/lagged"
	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
	infraCheckpoint "github.com/colbyziyuwang/tianshou/internal/infrastructure/checkpoint"
	infraExploration "github.com/colbyziyuwang/tianshou/internal/infrastructure/exploration"
	infraLagged "github.com/colbyziyuwang/tianshou/internal/infrastructure/lagged"
	infraReplay "github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
	infraReturns "github.com/colbyziyuwang/tianshou/internal/infrastructure/returns"
	infraStats "github.com/colbyziyuwang/tianshou/internal/infrastructure/stats"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// Re-export types for public API
type (
	// Replay storage types
	Transition        = domainReplay.Transition
	Batch             = domainReplay.Batch
	AddResult         = domainReplay.AddResult
	BufferConfig      = domainReplay.Config
	PrioritizedConfig = domainReplay.PrioritizedConfig
	BufferSnapshot    = domainReplay.Snapshot
	PrioritySnapshot  = domainReplay.PrioritySnapshot
	Buffer            = infraReplay.Buffer
	PrioritizedBuffer = infraReplay.PrioritizedBuffer

	// Return estimation types
	ReturnConfig = domainReturns.Config
	Estimator    = infraReturns.Estimator
	Valuer       = infraReturns.Valuer
	ValuerFunc   = infraReturns.ValuerFunc
	Normalizer   = infraReturns.Normalizer

	// Running statistics types
	RunningStats  = infraStats.RunningStats
	MovingAverage = infraStats.MovingAverage
	MovAvgConfig  = domainStats.MovAvgConfig
	StatsSnapshot = domainStats.Snapshot

	// Lagged network types
	LaggedConfig   = domainLagged.Config
	LaggedSnapshot = domainLagged.Snapshot
	LaggedManager  = infraLagged.Manager
	Parameterized  = infraLagged.Parameterized
	Shadow         = infraLagged.Shadow

	// Exploration noise types
	GaussianConfig    = domainExploration.GaussianConfig
	OUConfig          = domainExploration.OUConfig
	Noise             = infraExploration.Noise
	GaussianNoise     = infraExploration.GaussianNoise
	OrnsteinUhlenbeck = infraExploration.OrnsteinUhlenbeck

	// Checkpoint persistence types
	CheckpointConfig = domainCheckpoint.Config
	CheckpointRecord = domainCheckpoint.Record
	CheckpointKind   = domainCheckpoint.Kind
	CheckpointStore  = infraCheckpoint.Store
	Serializer       = infraCheckpoint.Serializer
	JSONSerializer   = infraCheckpoint.JSONSerializer

	// Update scaffold types
	OffPolicyConfig    = domainAlgorithm.OffPolicyConfig
	ActorCriticConfig  = domainAlgorithm.ActorCriticConfig
	OffPolicyResult    = domainAlgorithm.OffPolicyResult
	OnPolicyResult     = domainAlgorithm.OnPolicyResult
	OffPolicyUpdater   = applicationAlgorithm.OffPolicyUpdater
	ActorCriticUpdater = applicationAlgorithm.ActorCriticUpdater
	GradientStep       = applicationAlgorithm.GradientStep
	PolicyStep         = applicationAlgorithm.PolicyStep
	Critic             = applicationAlgorithm.Critic
	QNetwork           = applicationAlgorithm.QNetwork
	StochasticActor    = applicationAlgorithm.StochasticActor
	ActionValue        = applicationAlgorithm.ActionValue
	DoubleQ            = applicationAlgorithm.DoubleQ
	MinEnsemble        = applicationAlgorithm.MinEnsemble
	EntropyAdjusted    = applicationAlgorithm.EntropyAdjusted

	// Mode selects training or evaluation behavior per call.
	Mode = shared.Mode
)

// Mode constants
const (
	ModeTrain = shared.ModeTrain
	ModeEval  = shared.ModeEval
)

// Checkpoint kind constants
const (
	KindReplayBuffer      = domainCheckpoint.KindReplayBuffer
	KindPrioritizedBuffer = domainCheckpoint.KindPrioritizedBuffer
	KindRunningStats      = domainCheckpoint.KindRunningStats
	KindLaggedShadows     = domainCheckpoint.KindLaggedShadows
)

// Replay storage errors
var (
	ErrInvalidCapacity   = domainReplay.ErrInvalidCapacity
	ErrInvalidEnvNum     = domainReplay.ErrInvalidEnvNum
	ErrInvalidStackNum   = domainReplay.ErrInvalidStackNum
	ErrInvalidEnvID      = domainReplay.ErrInvalidEnvID
	ErrInvalidAlpha      = domainReplay.ErrInvalidAlpha
	ErrInvalidBeta       = domainReplay.ErrInvalidBeta
	ErrInvalidEpsilon    = domainReplay.ErrInvalidEpsilon
	ErrIndexOutOfRange   = domainReplay.ErrIndexOutOfRange
	ErrInvalidBatchSize  = domainReplay.ErrInvalidBatchSize
	ErrInsufficientData  = domainReplay.ErrInsufficientData
	ErrDimensionMismatch = domainReplay.ErrDimensionMismatch
	ErrMalformedBatch    = domainReplay.ErrMalformedBatch
	ErrSnapshotMismatch  = domainReplay.ErrSnapshotMismatch
)

// Return estimation errors
var (
	ErrInvalidGamma             = domainReturns.ErrInvalidGamma
	ErrInvalidLambda            = domainReturns.ErrInvalidLambda
	ErrInvalidNStep             = domainReturns.ErrInvalidNStep
	ErrInvalidMaxBatchSize      = domainReturns.ErrInvalidMaxBatchSize
	ErrInvalidEpsilonVar        = domainReturns.ErrInvalidEpsilonVar
	ErrMalformedEstimationBatch = domainReturns.ErrMalformedBatch
)

// Lagged network errors
var (
	ErrInvalidTau           = domainLagged.ErrInvalidTau
	ErrArchitectureMismatch = domainLagged.ErrArchitectureMismatch
)

// Exploration noise errors
var (
	ErrInvalidSigma = domainExploration.ErrInvalidSigma
	ErrInvalidTheta = domainExploration.ErrInvalidTheta
	ErrInvalidDt    = domainExploration.ErrInvalidDt
)

// Running statistics errors
var (
	ErrInvalidWindowSize = domainStats.ErrInvalidWindowSize
	ErrInvalidSnapshot   = domainStats.ErrInvalidSnapshot
)

// Checkpoint persistence errors
var (
	ErrInvalidPath           = domainCheckpoint.ErrInvalidPath
	ErrInvalidRetention      = domainCheckpoint.ErrInvalidRetention
	ErrInvalidKind           = domainCheckpoint.ErrInvalidKind
	ErrStoreInitFailed       = domainCheckpoint.ErrStoreInitFailed
	ErrStoreClosed           = domainCheckpoint.ErrStoreClosed
	ErrNotFound              = domainCheckpoint.ErrNotFound
	ErrSerializationFailed   = domainCheckpoint.ErrSerializationFailed
	ErrDeserializationFailed = domainCheckpoint.ErrDeserializationFailed
	ErrTransactionFailed     = domainCheckpoint.ErrTransactionFailed
)

// Update scaffold errors
var (
	ErrInvalidUpdateBatchSize = domainAlgorithm.ErrInvalidBatchSize
	ErrInvalidUpdateFreq      = domainAlgorithm.ErrInvalidUpdateFreq
	ErrInvalidSubsetSize      = domainAlgorithm.ErrInvalidSubsetSize
	ErrInvalidEntropyCoeff    = domainAlgorithm.ErrInvalidEntropyCoeff
	ErrInvalidMode            = domainAlgorithm.ErrInvalidMode
	ErrNilDependency          = domainAlgorithm.ErrNilDependency
	ErrOfflineUpdater         = domainAlgorithm.ErrOfflineUpdater
	ErrMismatchedNetworks     = domainAlgorithm.ErrMismatchedNetworks
)

// DefaultBufferConfig returns the default replay buffer configuration.
func DefaultBufferConfig() BufferConfig {
	return domainReplay.DefaultConfig()
}

// DefaultPrioritizedConfig returns the default prioritized buffer
// configuration.
func DefaultPrioritizedConfig() PrioritizedConfig {
	return domainReplay.DefaultPrioritizedConfig()
}

// DefaultReturnConfig returns the default return estimation configuration.
func DefaultReturnConfig() ReturnConfig {
	return domainReturns.DefaultConfig()
}

// DefaultLaggedConfig returns the default lagged synchronization
// configuration.
func DefaultLaggedConfig() LaggedConfig {
	return domainLagged.DefaultConfig()
}

// DefaultMovAvgConfig returns the default moving-average configuration.
func DefaultMovAvgConfig() MovAvgConfig {
	return domainStats.DefaultMovAvgConfig()
}

// DefaultGaussianConfig returns the default Gaussian noise configuration.
func DefaultGaussianConfig() GaussianConfig {
	return domainExploration.DefaultGaussianConfig()
}

// DefaultOUConfig returns the default Ornstein-Uhlenbeck noise
// configuration.
func DefaultOUConfig() OUConfig {
	return domainExploration.DefaultOUConfig()
}

// DefaultCheckpointConfig returns the default checkpoint store
// configuration.
func DefaultCheckpointConfig() CheckpointConfig {
	return domainCheckpoint.DefaultConfig()
}

// DefaultOffPolicyConfig returns the default off-policy scaffold
// configuration.
func DefaultOffPolicyConfig() OffPolicyConfig {
	return domainAlgorithm.DefaultOffPolicyConfig()
}

// DefaultActorCriticConfig returns the default actor-critic scaffold
// configuration.
func DefaultActorCriticConfig() ActorCriticConfig {
	return domainAlgorithm.DefaultActorCriticConfig()
}

// NewBuffer creates a replay buffer.
func NewBuffer(config BufferConfig, logger zerolog.Logger) (*Buffer, error) {
	return infraReplay.NewBuffer(config, logger)
}

// NewPrioritizedBuffer creates a prioritized replay buffer.
func NewPrioritizedBuffer(config PrioritizedConfig, logger zerolog.Logger) (*PrioritizedBuffer, error) {
	return infraReplay.NewPrioritizedBuffer(config, logger)
}

// NewEstimator creates a return estimator.
func NewEstimator(config ReturnConfig, logger zerolog.Logger) (*Estimator, error) {
	return infraReturns.NewEstimator(config, logger)
}

// NewNormalizer creates a running return normalizer.
func NewNormalizer(subtractMean bool, epsilon float64) (*Normalizer, error) {
	return infraReturns.NewNormalizer(subtractMean, epsilon)
}

// NewNormalizerFromConfig creates a normalizer from an estimation
// configuration, or nil when normalization is disabled.
func NewNormalizerFromConfig(config ReturnConfig) (*Normalizer, error) {
	return infraReturns.NewNormalizerFromConfig(config)
}

// NewRunningStats creates an online mean and variance estimator.
func NewRunningStats() *RunningStats {
	return infraStats.NewRunningStats()
}

// NewMovingAverage creates a fixed-window moving average.
func NewMovingAverage(config MovAvgConfig) (*MovingAverage, error) {
	return infraStats.NewMovingAverage(config)
}

// NewLaggedManager creates a lagged network manager.
func NewLaggedManager(config LaggedConfig, logger zerolog.Logger) (*LaggedManager, error) {
	return infraLagged.NewManager(config, logger)
}

// NewGaussianNoise creates a Gaussian exploration noise source.
func NewGaussianNoise(config GaussianConfig) (*GaussianNoise, error) {
	return infraExploration.NewGaussianNoise(config)
}

// NewOrnsteinUhlenbeck creates a temporally correlated exploration noise
// source.
func NewOrnsteinUhlenbeck(config OUConfig) (*OrnsteinUhlenbeck, error) {
	return infraExploration.NewOrnsteinUhlenbeck(config)
}

// NewCheckpointStore creates a SQLite-backed checkpoint store. A nil
// serializer selects JSON.
func NewCheckpointStore(config CheckpointConfig, serializer Serializer, logger zerolog.Logger) (*CheckpointStore, error) {
	return infraCheckpoint.NewStore(config, serializer, logger)
}

// NewJSONSerializer creates the default JSON checkpoint serializer.
func NewJSONSerializer() *JSONSerializer {
	return infraCheckpoint.NewJSONSerializer()
}

// NewOffPolicyUpdater creates an off-policy update scaffold over a
// uniformly sampled buffer.
func NewOffPolicyUpdater(config OffPolicyConfig, buffer *Buffer, manager *LaggedManager, target Valuer, logger zerolog.Logger) (*OffPolicyUpdater, error) {
	return applicationAlgorithm.NewOffPolicyUpdater(config, buffer, manager, target, logger)
}

// NewPrioritizedOffPolicyUpdater creates an off-policy update scaffold
// over a prioritized buffer.
func NewPrioritizedOffPolicyUpdater(config OffPolicyConfig, buffer *PrioritizedBuffer, manager *LaggedManager, target Valuer, logger zerolog.Logger) (*OffPolicyUpdater, error) {
	return applicationAlgorithm.NewPrioritizedOffPolicyUpdater(config, buffer, manager, target, logger)
}

// NewActorCriticUpdater creates an on-policy actor-critic update scaffold.
func NewActorCriticUpdater(config ActorCriticConfig, buffer *Buffer, manager *LaggedManager, critic Critic, logger zerolog.Logger) (*ActorCriticUpdater, error) {
	return applicationAlgorithm.NewActorCriticUpdater(config, buffer, manager, critic, logger)
}

// NewDoubleQ creates a double-Q target strategy.
func NewDoubleQ(online, lagged QNetwork) (*DoubleQ, error) {
	return applicationAlgorithm.NewDoubleQ(online, lagged)
}

// NewMinEnsemble creates a min-of-subset ensemble target strategy.
func NewMinEnsemble(ensemble []Critic, subsetSize int, seed int64) (*MinEnsemble, error) {
	return applicationAlgorithm.NewMinEnsemble(ensemble, subsetSize, seed)
}

// NewEntropyAdjusted creates an entropy-adjusted target strategy.
func NewEntropyAdjusted(actor StochasticActor, critic ActionValue, alpha float64) (*EntropyAdjusted, error) {
	return applicationAlgorithm.NewEntropyAdjusted(actor, critic, alpha)
}
