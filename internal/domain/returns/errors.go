package returns

import "errors"

var (
	// ErrInvalidGamma indicates a discount factor outside [0, 1].
	ErrInvalidGamma = errors.New("gamma must be in [0, 1]")

	// ErrInvalidLambda indicates a smoothing factor outside [0, 1].
	ErrInvalidLambda = errors.New("lambda must be in [0, 1]")

	// ErrInvalidNStep indicates a non-positive bootstrap step count.
	ErrInvalidNStep = errors.New("n_step must be at least 1")

	// ErrInvalidMaxBatchSize indicates a non-positive evaluation chunk size.
	ErrInvalidMaxBatchSize = errors.New("max_batch_size must be at least 1")

	// ErrInvalidEpsilonVar indicates a non-positive variance floor.
	ErrInvalidEpsilonVar = errors.New("epsilon_var must be positive")

	// ErrMalformedBatch indicates mismatched batch, value, or index array
	// lengths handed to an estimator.
	ErrMalformedBatch = errors.New("malformed estimation batch")
)
