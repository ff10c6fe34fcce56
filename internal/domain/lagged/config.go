// Package lagged defines the configuration and errors for lagged (target)
// network synchronization.
package lagged

import "fmt"

// Config holds the synchronization hyperparameters.
type Config struct {
	// Tau is the Polyak smoothing constant, in (0, 1]. Each Polyak update
	// moves every shadow tau of the way toward its source; tau 1
	// degenerates to a full copy.
	Tau float64 `json:"tau"`
}

// DefaultConfig returns the default synchronization configuration.
func DefaultConfig() Config {
	return Config{
		Tau: 0.005,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidTau, c.Tau)
	}
	return nil
}
