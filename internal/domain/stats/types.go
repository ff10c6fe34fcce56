// Package stats provides domain types for online statistics estimation.
package stats

// Snapshot is the persistable state of a running mean/variance aggregate.
type Snapshot struct {
	// Count is the number of samples absorbed so far.
	Count float64 `json:"count"`

	// Mean is the running mean.
	Mean float64 `json:"mean"`

	// M2 is the running sum of squared deviations from the mean; the
	// population variance is M2 / Count.
	M2 float64 `json:"m2"`
}

// MovAvgConfig is the configuration for a fixed-window moving average.
type MovAvgConfig struct {
	// WindowSize is the number of recent samples the window retains.
	WindowSize int `json:"windowSize"`
}

// DefaultMovAvgConfig returns the default moving-average configuration.
func DefaultMovAvgConfig() MovAvgConfig {
	return MovAvgConfig{WindowSize: 100}
}
