// Package exploration defines the configuration and errors for action
// exploration noise.
package exploration

import "fmt"

// GaussianConfig holds the parameters for uncorrelated Gaussian noise.
type GaussianConfig struct {
	// Sigma is the standard deviation of each noise dimension. Zero
	// disables exploration without removing the generator.
	Sigma float64 `json:"sigma"`

	// Seed seeds the generator. Zero selects a time-based seed.
	Seed int64 `json:"seed"`
}

// DefaultGaussianConfig returns the default Gaussian noise configuration.
func DefaultGaussianConfig() GaussianConfig {
	return GaussianConfig{
		Sigma: 0.1,
	}
}

// Validate checks the configuration for errors.
func (c *GaussianConfig) Validate() error {
	if c.Sigma < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSigma, c.Sigma)
	}
	return nil
}

// OUConfig holds the parameters for Ornstein-Uhlenbeck noise, which is
// temporally correlated and suits inertial continuous-control tasks.
type OUConfig struct {
	// Theta is the mean-reversion rate. Must be positive.
	Theta float64 `json:"theta"`

	// Sigma scales the Wiener increments. Must be non-negative.
	Sigma float64 `json:"sigma"`

	// Mu is the long-run mean the process reverts to.
	Mu float64 `json:"mu"`

	// Dt is the integration step. Must be positive.
	Dt float64 `json:"dt"`

	// Seed seeds the generator. Zero selects a time-based seed.
	Seed int64 `json:"seed"`
}

// DefaultOUConfig returns the default Ornstein-Uhlenbeck configuration.
func DefaultOUConfig() OUConfig {
	return OUConfig{
		Theta: 0.15,
		Sigma: 0.3,
		Mu:    0,
		Dt:    1e-2,
	}
}

// Validate checks the configuration for errors.
func (c *OUConfig) Validate() error {
	if c.Theta <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTheta, c.Theta)
	}
	if c.Sigma < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSigma, c.Sigma)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDt, c.Dt)
	}
	return nil
}
