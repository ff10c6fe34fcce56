// Package checkpoint defines the types, configuration, and errors for
// training-state persistence.
package checkpoint

import "time"

// Kind labels which component's state a checkpoint holds.
type Kind string

const (
	// KindReplayBuffer labels replay buffer snapshots.
	KindReplayBuffer Kind = "replay_buffer"

	// KindPrioritizedBuffer labels prioritized replay buffer snapshots.
	KindPrioritizedBuffer Kind = "prioritized_buffer"

	// KindRunningStats labels running-statistics snapshots.
	KindRunningStats Kind = "running_stats"

	// KindLaggedShadows labels lagged-network shadow parameter snapshots.
	KindLaggedShadows Kind = "lagged_shadows"
)

// Record is one persisted checkpoint.
type Record struct {
	// ID uniquely identifies the checkpoint.
	ID string `json:"id"`

	// Kind labels what component state the checkpoint holds.
	Kind Kind `json:"kind"`

	// State is the serialized component state.
	State []byte `json:"state"`

	// CreatedAt is when the checkpoint was written, in UTC.
	CreatedAt time.Time `json:"created_at"`
}
