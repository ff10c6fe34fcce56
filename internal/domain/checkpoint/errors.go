package checkpoint

import "errors"

var (
	// ErrInvalidPath indicates an unusable database path.
	ErrInvalidPath = errors.New("invalid database path")

	// ErrInvalidRetention indicates a negative retention bound.
	ErrInvalidRetention = errors.New("invalid retention bound")

	// ErrInvalidKind indicates an empty checkpoint kind.
	ErrInvalidKind = errors.New("invalid checkpoint kind")

	// ErrStoreInitFailed indicates the store could not be initialized.
	ErrStoreInitFailed = errors.New("checkpoint store initialization failed")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("checkpoint store is closed")

	// ErrNotFound indicates a missing checkpoint.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrSerializationFailed indicates state serialization failure.
	ErrSerializationFailed = errors.New("checkpoint serialization failed")

	// ErrDeserializationFailed indicates state deserialization failure.
	ErrDeserializationFailed = errors.New("checkpoint deserialization failed")

	// ErrTransactionFailed indicates a database transaction failure.
	ErrTransactionFailed = errors.New("checkpoint transaction failed")
)
