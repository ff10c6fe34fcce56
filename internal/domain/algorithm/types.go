package algorithm

// OffPolicyResult reports what one off-policy update step consumed and
// produced.
type OffPolicyResult struct {
	// Step is the zero-based index of the completed gradient step.
	Step int64 `json:"step"`

	// Indices are the sampled buffer indices, one per batch row.
	Indices []int `json:"indices"`

	// Weights are the importance weights handed to the gradient step.
	// All ones under uniform sampling.
	Weights []float64 `json:"weights"`

	// Targets are the bootstrapped return targets, one per batch row.
	Targets []float64 `json:"targets"`

	// Synced reports that a full target-network sync ran at the start of
	// this step.
	Synced bool `json:"synced"`
}

// OnPolicyResult reports what one on-policy update pass consumed and
// produced.
type OnPolicyResult struct {
	// Step is the zero-based index of the completed update pass.
	Step int64 `json:"step"`

	// Indices are the consumed buffer indices in chronological order per
	// sub-buffer.
	Indices []int `json:"indices"`

	// Returns are the lambda-returns, one per row, on the critic's scale.
	Returns []float64 `json:"returns"`

	// Advantages are the advantage estimates, one per row, after any
	// per-batch standardization.
	Advantages []float64 `json:"advantages"`
}
