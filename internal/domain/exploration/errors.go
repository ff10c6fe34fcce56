package exploration

import "errors"

var (
	// ErrInvalidSigma indicates a negative noise deviation.
	ErrInvalidSigma = errors.New("sigma must be non-negative")

	// ErrInvalidTheta indicates a non-positive mean-reversion rate.
	ErrInvalidTheta = errors.New("theta must be positive")

	// ErrInvalidDt indicates a non-positive integration step.
	ErrInvalidDt = errors.New("dt must be positive")
)
