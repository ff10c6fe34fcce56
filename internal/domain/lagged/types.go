package lagged

// Snapshot holds the shadow parameters of every tracked pair, in
// registration order. Synchronization policy and tau are configuration,
// not state, so they are not part of the snapshot.
type Snapshot struct {
	// Shadows is one parameter matrix per tracked pair.
	Shadows [][][]float64 `json:"shadows"`
}
