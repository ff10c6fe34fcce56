package stats

import "errors"

// Domain errors for statistics estimation.
var (
	// ErrInvalidWindowSize indicates a non-positive moving-average window.
	ErrInvalidWindowSize = errors.New("invalid window size")

	// ErrInvalidSnapshot indicates snapshot state that no update sequence
	// can produce, such as a negative count or negative M2.
	ErrInvalidSnapshot = errors.New("invalid statistics snapshot")
)
