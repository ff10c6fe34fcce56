package lagged

import "errors"

var (
	// ErrInvalidTau indicates a Polyak constant outside (0, 1].
	ErrInvalidTau = errors.New("tau must be in (0, 1]")

	// ErrArchitectureMismatch indicates source and shadow parameter shapes
	// that do not line up.
	ErrArchitectureMismatch = errors.New("architecture mismatch between source and shadow")
)
