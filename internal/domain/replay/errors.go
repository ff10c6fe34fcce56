package replay

import "errors"

// Domain errors for replay storage.
var (
	// ErrInvalidCapacity indicates a non-positive buffer capacity.
	ErrInvalidCapacity = errors.New("invalid buffer capacity")

	// ErrInvalidEnvNum indicates a non-positive sub-buffer count.
	ErrInvalidEnvNum = errors.New("invalid env num")

	// ErrInvalidStackNum indicates a non-positive observation stack depth.
	ErrInvalidStackNum = errors.New("invalid stack num")

	// ErrInvalidEnvID indicates an env id outside the configured range.
	ErrInvalidEnvID = errors.New("invalid env id")

	// ErrInvalidAlpha indicates a non-positive priority exponent.
	ErrInvalidAlpha = errors.New("invalid priority exponent alpha")

	// ErrInvalidBeta indicates a negative importance-sampling exponent.
	ErrInvalidBeta = errors.New("invalid importance-sampling exponent beta")

	// ErrInvalidEpsilon indicates a negative priority epsilon.
	ErrInvalidEpsilon = errors.New("invalid priority epsilon")

	// ErrIndexOutOfRange indicates an index that no stored transition
	// occupies.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidBatchSize indicates a non-positive sample size.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInsufficientData indicates a without-replacement sample larger
	// than the number of stored transitions.
	ErrInsufficientData = errors.New("insufficient stored transitions")

	// ErrDimensionMismatch indicates a transition whose observation or
	// action width differs from the widths the buffer was allocated with.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMalformedBatch indicates paired batch arrays of differing length.
	ErrMalformedBatch = errors.New("malformed batch")

	// ErrSnapshotMismatch indicates a snapshot whose geometry differs from
	// the restoring buffer's configuration.
	ErrSnapshotMismatch = errors.New("snapshot geometry mismatch")
)
