// Package replay provides domain types for transition storage and sampling.
package replay

// Transition is one environment step. Transitions are stored by column
// inside the buffer; this struct is the unit handed to Add by the
// collection loop.
type Transition struct {
	// Obs is the observation before the step.
	Obs []float32 `json:"obs"`

	// Act is the action taken.
	Act []float32 `json:"act"`

	// Rew is the scalar reward received.
	Rew float64 `json:"rew"`

	// ObsNext is the observation after the step.
	ObsNext []float32 `json:"obsNext"`

	// Terminated marks a true episode end: no continuation value exists
	// past this step.
	Terminated bool `json:"terminated"`

	// Truncated marks an artificial cutoff: the trajectory did not end,
	// so bootstrapping from a value estimate remains valid.
	Truncated bool `json:"truncated"`

	// Info carries auxiliary per-step data.
	Info map[string]interface{} `json:"info,omitempty"`
}

// Done reports whether the transition closes an episode.
func (t Transition) Done() bool {
	return t.Terminated || t.Truncated
}

// AddResult reports the outcome of writing one transition.
type AddResult struct {
	// Index is the absolute buffer index the transition was written to.
	Index int `json:"index"`

	// EpisodeLength is the length of the episode this write closed.
	// Zero while the episode remains open.
	EpisodeLength int `json:"episodeLength,omitempty"`

	// EpisodeReturn is the undiscounted reward sum of the episode this
	// write closed. Zero while the episode remains open.
	EpisodeReturn float64 `json:"episodeReturn,omitempty"`

	// EpisodeStartEvicted reports that the write overwrote the first
	// transition of the still-open episode in the same sub-buffer, so the
	// stored prefix of that episode is no longer complete.
	EpisodeStartEvicted bool `json:"episodeStartEvicted,omitempty"`
}

// Batch is a columnar view of selected transitions. Row i of every column
// belongs to Indices[i].
type Batch struct {
	// Indices are the absolute buffer indices the rows were read from.
	Indices []int `json:"indices"`

	// Columns, one row per index.
	Obs        [][]float32 `json:"obs"`
	Act        [][]float32 `json:"act"`
	ObsNext    [][]float32 `json:"obsNext"`
	Rew        []float64   `json:"rew"`
	Terminated []bool      `json:"terminated"`
	Truncated  []bool      `json:"truncated"`
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Indices)
}

// Snapshot is the persistable state of a buffer: one contiguous array per
// column plus per-sub-buffer cursor and episode bookkeeping.
type Snapshot struct {
	// Capacity is the per-sub-buffer capacity the snapshot was taken with.
	Capacity int `json:"capacity"`

	// EnvNum is the number of sub-buffers.
	EnvNum int `json:"envNum"`

	// ObsDim and ActDim are the inferred column strides.
	ObsDim int `json:"obsDim"`
	ActDim int `json:"actDim"`

	// Columns, flat with the strides above.
	Obs        []float32                `json:"obs"`
	Act        []float32                `json:"act"`
	ObsNext    []float32                `json:"obsNext"`
	Rew        []float64                `json:"rew"`
	Terminated []bool                   `json:"terminated"`
	Truncated  []bool                   `json:"truncated"`
	Info       []map[string]interface{} `json:"info"`

	// Per-sub-buffer cursors and episode bookkeeping.
	Cursor        []int     `json:"cursor"`
	Size          []int     `json:"size"`
	LastIndex     []int     `json:"lastIndex"`
	EpisodeStart  []int     `json:"episodeStart"`
	EpisodeLen    []int     `json:"episodeLen"`
	EpisodeRet    []float64 `json:"episodeRet"`
	EpisodeOpen   []bool    `json:"episodeOpen"`
}

// PrioritySnapshot is the persistable state of a prioritized buffer: the
// underlying buffer snapshot plus the priority tree's leaf array. Alpha and
// beta are configuration, not state, and are not persisted.
type PrioritySnapshot struct {
	// Buffer is the underlying buffer state.
	Buffer Snapshot `json:"buffer"`

	// Leaves holds the exponentiated priority of every slot.
	Leaves []float64 `json:"leaves"`

	// MaxPriority is the largest raw priority observed so far.
	MaxPriority float64 `json:"maxPriority"`
}
