// Package algorithm provides domain types for the update scaffolds that
// compose replay storage, return estimation, and lagged-network
// synchronization into algorithm-family update disciplines.
package algorithm

import (
	"fmt"

	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
)

// OffPolicyConfig is the configuration for an off-policy update scaffold.
type OffPolicyConfig struct {
	// Returns configures the n-step target computation.
	Returns domainReturns.Config `json:"returns"`

	// BatchSize is the number of transitions drawn per update.
	BatchSize int `json:"batch_size"`

	// TargetUpdateFreq is the number of gradient steps between full
	// target-network syncs. The sync runs before target values are read.
	// Zero selects the continuous discipline instead: a Polyak update
	// after every gradient step.
	TargetUpdateFreq int `json:"target_update_freq"`

	// Offline marks the buffer as a fixed dataset. An offline updater
	// rejects new transitions; everything else about the update is
	// unchanged.
	Offline bool `json:"offline"`
}

// DefaultOffPolicyConfig returns the default off-policy configuration.
func DefaultOffPolicyConfig() OffPolicyConfig {
	return OffPolicyConfig{
		Returns:          domainReturns.DefaultConfig(),
		BatchSize:        64,
		TargetUpdateFreq: 500,
	}
}

// Validate checks the configuration eagerly.
func (c OffPolicyConfig) Validate() error {
	if err := c.Returns.Validate(); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.TargetUpdateFreq < 0 {
		return fmt.Errorf("%w: target update freq %d", ErrInvalidUpdateFreq, c.TargetUpdateFreq)
	}
	return nil
}

// ActorCriticConfig is the configuration for an actor-critic update
// scaffold.
type ActorCriticConfig struct {
	// Returns configures the advantage estimation.
	Returns domainReturns.Config `json:"returns"`

	// NormalizeAdvantages standardizes advantages to zero mean and unit
	// deviation within each update batch before the gradient step. This
	// is per-batch standardization, separate from the running return
	// normalization in Returns.
	NormalizeAdvantages bool `json:"normalize_advantages"`

	// ResetBufferAfterUpdate drops all stored transitions once an update
	// consumed them, the usual on-policy discipline.
	ResetBufferAfterUpdate bool `json:"reset_buffer_after_update"`
}

// DefaultActorCriticConfig returns the default actor-critic configuration.
func DefaultActorCriticConfig() ActorCriticConfig {
	return ActorCriticConfig{
		Returns:                domainReturns.DefaultConfig(),
		ResetBufferAfterUpdate: true,
	}
}

// Validate checks the configuration eagerly.
func (c ActorCriticConfig) Validate() error {
	return c.Returns.Validate()
}
