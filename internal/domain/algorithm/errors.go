package algorithm

import "errors"

// Domain errors for update scaffolds.
var (
	// ErrInvalidBatchSize indicates a non-positive update batch size.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidUpdateFreq indicates a negative target update frequency.
	ErrInvalidUpdateFreq = errors.New("target update freq must not be negative")

	// ErrInvalidSubsetSize indicates an ensemble subset size outside
	// (0, ensemble size].
	ErrInvalidSubsetSize = errors.New("subset size must be in (0, ensemble size]")

	// ErrInvalidEntropyCoeff indicates a negative entropy coefficient.
	ErrInvalidEntropyCoeff = errors.New("entropy coefficient must not be negative")

	// ErrInvalidMode indicates a mode value that is neither train nor eval.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrNilDependency indicates a required collaborator was nil at
	// construction.
	ErrNilDependency = errors.New("nil dependency")

	// ErrOfflineUpdater indicates an attempt to feed new transitions into
	// an updater configured for a fixed dataset.
	ErrOfflineUpdater = errors.New("offline updater rejects new transitions")

	// ErrMismatchedNetworks indicates network outputs whose shapes
	// disagree with each other or with the batch.
	ErrMismatchedNetworks = errors.New("mismatched network outputs")
)
