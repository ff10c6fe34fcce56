package replay

import "fmt"

// Config is the configuration for a replay buffer.
type Config struct {
	// Capacity is the number of transitions each sub-buffer can hold.
	Capacity int `json:"capacity"`

	// EnvNum is the number of parallel sub-buffers, one per environment.
	EnvNum int `json:"envNum"`

	// StackNum is the number of observations stacked by ObsStack. A value
	// of 1 disables stacking.
	StackNum int `json:"stackNum"`

	// Seed seeds the sampling RNG. Zero selects a time-based seed.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultConfig returns the default buffer configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: 10000,
		EnvNum:   1,
		StackNum: 1,
	}
}

// Validate checks the configuration, returning a configuration error for
// the first invalid field.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidCapacity, c.Capacity)
	}
	if c.EnvNum <= 0 {
		return fmt.Errorf("%w: env num %d", ErrInvalidEnvNum, c.EnvNum)
	}
	if c.StackNum <= 0 {
		return fmt.Errorf("%w: stack num %d", ErrInvalidStackNum, c.StackNum)
	}
	return nil
}

// PrioritizedConfig is the configuration for a prioritized replay buffer.
type PrioritizedConfig struct {
	Config

	// Alpha is the priority exponent: stored priority is (|error|+eps)^alpha.
	Alpha float64 `json:"alpha"`

	// Beta is the importance-sampling exponent. It may be scheduled upward
	// over training via SetBeta.
	Beta float64 `json:"beta"`

	// EpsilonPriority is added to absolute errors before exponentiation so
	// zero-error transitions keep a nonzero sampling probability.
	EpsilonPriority float64 `json:"epsilonPriority"`
}

// DefaultPrioritizedConfig returns the default prioritized buffer
// configuration.
func DefaultPrioritizedConfig() PrioritizedConfig {
	return PrioritizedConfig{
		Config:          DefaultConfig(),
		Alpha:           0.6,
		Beta:            0.4,
		EpsilonPriority: 1e-8,
	}
}

// Validate checks the configuration, returning a configuration error for
// the first invalid field.
func (c PrioritizedConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("%w: alpha %v", ErrInvalidAlpha, c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("%w: beta %v", ErrInvalidBeta, c.Beta)
	}
	if c.EpsilonPriority < 0 {
		return fmt.Errorf("%w: epsilon %v", ErrInvalidEpsilon, c.EpsilonPriority)
	}
	return nil
}
