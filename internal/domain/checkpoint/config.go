package checkpoint

import "fmt"

// Config configures the checkpoint store.
type Config struct {
	// DatabasePath is the path to the SQLite database file.
	DatabasePath string `json:"database_path"`

	// KeepPerKind bounds how many checkpoints of each kind are retained.
	// Saving past the bound deletes the oldest. Zero keeps everything.
	KeepPerKind int `json:"keep_per_kind"`
}

// DefaultConfig returns the default checkpoint store configuration.
func DefaultConfig() Config {
	return Config{
		DatabasePath: ".data/checkpoints.db",
		KeepPerKind:  0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: empty database path", ErrInvalidPath)
	}
	if c.KeepPerKind < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetention, c.KeepPerKind)
	}
	return nil
}
