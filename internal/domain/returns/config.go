// Package returns defines the configuration and errors for return and
// advantage estimation.
package returns

import "fmt"

// Config holds the hyperparameters shared by the return estimators.
type Config struct {
	// Gamma is the per-step discount factor, in [0, 1].
	Gamma float64 `json:"gamma"`

	// Lambda is the advantage smoothing factor, in [0, 1]. Lambda 1 gives
	// Monte-Carlo advantages, lambda 0 the one-step TD residual.
	Lambda float64 `json:"lambda"`

	// NStep is how many reward steps a bootstrapped target accumulates
	// before adding the discounted value estimate. Must be at least 1.
	NStep int `json:"n_step"`

	// MaxBatchSize caps how many indices a single value evaluation
	// receives, bounding the memory one call can touch. Must be at
	// least 1.
	MaxBatchSize int `json:"max_batch_size"`

	// Normalize scales computed returns by the running standard deviation
	// of earlier batches.
	Normalize bool `json:"normalize"`

	// SubtractMean additionally centers normalized returns on the running
	// mean. Off by default: advantage-based methods keep the raw offset.
	SubtractMean bool `json:"subtract_mean"`

	// EpsilonVar floors the variance before it is used as a divisor.
	// Must be positive.
	EpsilonVar float64 `json:"epsilon_var"`
}

// DefaultConfig returns the default estimation configuration.
func DefaultConfig() Config {
	return Config{
		Gamma:        0.99,
		Lambda:       0.95,
		NStep:        1,
		MaxBatchSize: 256,
		Normalize:    false,
		SubtractMean: false,
		EpsilonVar:   1e-8,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidGamma, c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidLambda, c.Lambda)
	}
	if c.NStep < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidNStep, c.NStep)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxBatchSize, c.MaxBatchSize)
	}
	if c.EpsilonVar <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidEpsilonVar, c.EpsilonVar)
	}
	return nil
}
