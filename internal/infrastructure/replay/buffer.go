// Package replay provides replay storage infrastructure.
package replay

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// Buffer is a fixed-capacity circular store of transitions from one or more
// parallel environments. Each environment owns one ring of Capacity slots;
// the absolute index of sub-buffer e's local slot l is e*Capacity+l.
// Transitions are stored by column, one contiguous array per field.
//
// Next and Prev are pure functions of buffer geometry: Next self-loops only
// at the most recent write of a sub-buffer (the frontier), Prev self-loops
// only at the oldest stored slot. Episode boundaries are carried by the
// terminated/truncated columns and must be detected by consumers through
// those flags, never through buffer position.
//
// The buffer must be driven from a single collection loop. If multiple
// collection workers are used, each must own a disjoint set of env ids.
type Buffer struct {
	mu     sync.RWMutex
	config domainReplay.Config
	rng    *rand.Rand
	logger zerolog.Logger

	// Column strides, inferred from the first transition added.
	obsDim    int
	actDim    int
	allocated bool

	obs        []float32
	act        []float32
	obsNext    []float32
	rew        []float64
	terminated []bool
	truncated  []bool
	info       []map[string]interface{}

	// Per-sub-buffer cursors and episode bookkeeping.
	cursor    []int
	size      []int
	lastIndex []int
	epStart   []int
	epLen     []int
	epRet     []float64
	epOpen    []bool
}

// NewBuffer creates a buffer with the given configuration. Pass
// zerolog.Nop() to disable logging.
func NewBuffer(config domainReplay.Config, logger zerolog.Logger) (*Buffer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	total := config.Capacity * config.EnvNum
	b := &Buffer{
		config:     config,
		rng:        rand.New(rand.NewSource(seed)),
		logger:     logger.With().Str("component", "replay_buffer").Logger(),
		rew:        make([]float64, total),
		terminated: make([]bool, total),
		truncated:  make([]bool, total),
		info:       make([]map[string]interface{}, total),
		cursor:     make([]int, config.EnvNum),
		size:       make([]int, config.EnvNum),
		lastIndex:  make([]int, config.EnvNum),
		epStart:    make([]int, config.EnvNum),
		epLen:      make([]int, config.EnvNum),
		epRet:      make([]float64, config.EnvNum),
		epOpen:     make([]bool, config.EnvNum),
	}
	for e := range b.lastIndex {
		b.lastIndex[e] = -1
	}

	b.logger.Info().
		Int("capacity", config.Capacity).
		Int("env_num", config.EnvNum).
		Int("stack_num", config.StackNum).
		Msg("replay buffer created")

	return b, nil
}

// Add writes one transition into the sub-buffer owned by envID, advancing
// that sub-buffer's cursor with wraparound and overwriting the oldest slot
// once the ring is full. Add itself never fails on a full buffer; the only
// errors are an unknown env id and a transition whose observation or action
// width differs from the widths the buffer was allocated with.
func (b *Buffer) Add(transition domainReplay.Transition, envID int) (domainReplay.AddResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if envID < 0 || envID >= b.config.EnvNum {
		return domainReplay.AddResult{}, fmt.Errorf("%w: env %d of %d", domainReplay.ErrInvalidEnvID, envID, b.config.EnvNum)
	}
	if err := b.ensureColumns(transition); err != nil {
		return domainReplay.AddResult{}, err
	}

	capacity := b.config.Capacity
	local := b.cursor[envID]
	abs := envID*capacity + local
	overwriting := b.size[envID] == capacity

	result := domainReplay.AddResult{Index: abs}

	// The ring is about to eat the open episode's first transition: the
	// stored prefix of that episode is no longer complete, so consumers
	// are warned rather than left to bootstrap from a silent gap.
	if overwriting && b.epOpen[envID] && abs == b.epStart[envID] {
		result.EpisodeStartEvicted = true
		b.epStart[envID] = envID*capacity + (local+1)%capacity
		b.logger.Debug().
			Int("env_id", envID).
			Int("index", abs).
			Msg("open episode start evicted")
	}

	if b.obsDim > 0 {
		copy(b.obs[abs*b.obsDim:(abs+1)*b.obsDim], transition.Obs)
		copy(b.obsNext[abs*b.obsDim:(abs+1)*b.obsDim], transition.ObsNext)
	}
	if b.actDim > 0 {
		copy(b.act[abs*b.actDim:(abs+1)*b.actDim], transition.Act)
	}
	b.rew[abs] = transition.Rew
	b.terminated[abs] = transition.Terminated
	b.truncated[abs] = transition.Truncated
	b.info[abs] = shared.CloneStringInterfaceMap(transition.Info)

	if !b.epOpen[envID] {
		b.epOpen[envID] = true
		b.epStart[envID] = abs
		b.epLen[envID] = 0
		b.epRet[envID] = 0
	}
	b.epLen[envID]++
	b.epRet[envID] += transition.Rew

	if transition.Done() {
		result.EpisodeLength = b.epLen[envID]
		result.EpisodeReturn = b.epRet[envID]
		b.epOpen[envID] = false
		b.logger.Debug().
			Int("env_id", envID).
			Int("episode_length", result.EpisodeLength).
			Float64("episode_return", result.EpisodeReturn).
			Bool("terminated", transition.Terminated).
			Msg("episode closed")
	}

	b.lastIndex[envID] = abs
	b.cursor[envID] = (local + 1) % capacity
	if !overwriting {
		b.size[envID]++
	}

	return result, nil
}

// Next returns the chronologically following stored index in the same
// sub-buffer, or i itself when i is the sub-buffer's most recent write (the
// frontier). Calling Next with an index no stored transition occupies is a
// programming error and panics.
func (b *Buffer) Next(i int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextLocked(i)
}

// Prev returns the chronologically preceding stored index in the same
// sub-buffer, or i itself when i is the sub-buffer's oldest stored slot.
// Calling Prev with an index no stored transition occupies is a programming
// error and panics.
func (b *Buffer) Prev(i int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prevLocked(i)
}

// UnfinishedIndex returns, for every sub-buffer whose most recent write did
// not close an episode, the absolute index of that write. These are the
// in-progress episode tails that cannot use a recorded terminal value and
// must bootstrap from a value estimate instead.
func (b *Buffer) UnfinishedIndex() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	indices := make([]int, 0, b.config.EnvNum)
	for e := 0; e < b.config.EnvNum; e++ {
		if b.size[e] > 0 && b.epOpen[e] {
			indices = append(indices, b.lastIndex[e])
		}
	}
	return indices
}

// Sample draws batchSize stored indices uniformly without replacement
// across all sub-buffers. Requesting more indices than are stored returns
// ErrInsufficientData.
func (b *Buffer) Sample(batchSize int) ([]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", domainReplay.ErrInvalidBatchSize, batchSize)
	}

	valid := b.validIndicesLocked()
	if batchSize > len(valid) {
		return nil, fmt.Errorf("%w: requested %d of %d", domainReplay.ErrInsufficientData, batchSize, len(valid))
	}

	// Partial Fisher-Yates over the valid index list.
	for j := 0; j < batchSize; j++ {
		k := j + b.rng.Intn(len(valid)-j)
		valid[j], valid[k] = valid[k], valid[j]
	}
	return valid[:batchSize], nil
}

// Get reads the columns of the given indices into a batch. Any index no
// stored transition occupies yields ErrIndexOutOfRange.
func (b *Buffer) Get(indices []int) (domainReplay.Batch, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, i := range indices {
		if !b.storedLocked(i) {
			return domainReplay.Batch{}, fmt.Errorf("%w: index %d", domainReplay.ErrIndexOutOfRange, i)
		}
	}

	batch := domainReplay.Batch{
		Indices:    append([]int(nil), indices...),
		Obs:        make([][]float32, len(indices)),
		Act:        make([][]float32, len(indices)),
		ObsNext:    make([][]float32, len(indices)),
		Rew:        make([]float64, len(indices)),
		Terminated: make([]bool, len(indices)),
		Truncated:  make([]bool, len(indices)),
	}
	for row, i := range indices {
		batch.Obs[row] = b.obsRowLocked(i)
		batch.Act[row] = b.actRowLocked(i)
		batch.ObsNext[row] = b.obsNextRowLocked(i)
		batch.Rew[row] = b.rew[i]
		batch.Terminated[row] = b.terminated[i]
		batch.Truncated[row] = b.truncated[i]
	}
	return batch, nil
}

// ObsStack returns StackNum observation frames ending at index i, oldest
// first. The walk backward stops advancing at episode boundaries and at the
// oldest stored slot, repeating the earliest reachable frame, so a stack
// never mixes two episodes. Calling ObsStack with an index no stored
// transition occupies is a programming error and panics.
func (b *Buffer) ObsStack(i int) [][]float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	k := b.config.StackNum
	frames := make([][]float32, k)
	frames[k-1] = b.obsRowLocked(i)

	cur := i
	for j := k - 2; j >= 0; j-- {
		cand := b.prevLocked(cur)
		if cand != cur && !b.doneLocked(cand) {
			cur = cand
		}
		frames[j] = b.obsRowLocked(cur)
	}
	return frames
}

// Reward returns the reward stored at index i. Panics if no stored
// transition occupies i.
func (b *Buffer) Reward(i int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.mustStoredLocked(i)
	return b.rew[i]
}

// Terminated reports whether the transition at index i ended its episode
// with no continuation value. Panics if no stored transition occupies i.
func (b *Buffer) Terminated(i int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.mustStoredLocked(i)
	return b.terminated[i]
}

// Truncated reports whether the transition at index i was cut off
// artificially. Panics if no stored transition occupies i.
func (b *Buffer) Truncated(i int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.mustStoredLocked(i)
	return b.truncated[i]
}

// Done reports whether the transition at index i closed an episode. Panics
// if no stored transition occupies i.
func (b *Buffer) Done(i int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.mustStoredLocked(i)
	return b.doneLocked(i)
}

// InfoAt returns a deep copy of the auxiliary info stored at index i.
// Panics if no stored transition occupies i.
func (b *Buffer) InfoAt(i int) map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.mustStoredLocked(i)
	return shared.CloneStringInterfaceMap(b.info[i])
}

// Stored reports whether a stored transition occupies index i.
func (b *Buffer) Stored(i int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.storedLocked(i)
}

// StoredIndices returns every absolute index a stored transition occupies,
// in ascending order.
func (b *Buffer) StoredIndices() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.validIndicesLocked()
}

// ChronologicalIndices returns every stored index ordered oldest to newest
// within each sub-buffer, sub-buffers concatenated. Unlike StoredIndices,
// the order follows write time rather than slot layout, so it stays
// chronological after the ring wraps.
func (b *Buffer) ChronologicalIndices() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	capacity := b.config.Capacity
	indices := make([]int, 0, b.lenLocked())
	for e := 0; e < b.config.EnvNum; e++ {
		base := e * capacity
		for l := 0; l < b.size[e]; l++ {
			indices = append(indices, base+(b.cursor[e]-b.size[e]+l+capacity)%capacity)
		}
	}
	return indices
}

// Len returns the number of stored transitions across all sub-buffers.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, s := range b.size {
		total += s
	}
	return total
}

// EnvLen returns the number of stored transitions in one sub-buffer.
func (b *Buffer) EnvLen(envID int) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if envID < 0 || envID >= b.config.EnvNum {
		return 0, fmt.Errorf("%w: env %d of %d", domainReplay.ErrInvalidEnvID, envID, b.config.EnvNum)
	}
	return b.size[envID], nil
}

// Capacity returns the per-sub-buffer capacity.
func (b *Buffer) Capacity() int {
	return b.config.Capacity
}

// EnvNum returns the number of sub-buffers.
func (b *Buffer) EnvNum() int {
	return b.config.EnvNum
}

// Reset clears all cursors and episode bookkeeping. Columns stay allocated;
// stored values become unreachable.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for e := 0; e < b.config.EnvNum; e++ {
		b.cursor[e] = 0
		b.size[e] = 0
		b.lastIndex[e] = -1
		b.epStart[e] = 0
		b.epLen[e] = 0
		b.epRet[e] = 0
		b.epOpen[e] = false
	}
	for i := range b.info {
		b.info[i] = nil
	}

	b.logger.Debug().Msg("replay buffer reset")
}

// Snapshot returns a deep copy of the buffer's persistable state.
func (b *Buffer) Snapshot() *domainReplay.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snapshot := &domainReplay.Snapshot{
		Capacity:     b.config.Capacity,
		EnvNum:       b.config.EnvNum,
		ObsDim:       b.obsDim,
		ActDim:       b.actDim,
		Rew:          append([]float64(nil), b.rew...),
		Terminated:   append([]bool(nil), b.terminated...),
		Truncated:    append([]bool(nil), b.truncated...),
		Info:         make([]map[string]interface{}, len(b.info)),
		Cursor:       append([]int(nil), b.cursor...),
		Size:         append([]int(nil), b.size...),
		LastIndex:    append([]int(nil), b.lastIndex...),
		EpisodeStart: append([]int(nil), b.epStart...),
		EpisodeLen:   append([]int(nil), b.epLen...),
		EpisodeRet:   append([]float64(nil), b.epRet...),
		EpisodeOpen:  append([]bool(nil), b.epOpen...),
	}
	if b.allocated {
		snapshot.Obs = append([]float32(nil), b.obs...)
		snapshot.Act = append([]float32(nil), b.act...)
		snapshot.ObsNext = append([]float32(nil), b.obsNext...)
	}
	for i, m := range b.info {
		snapshot.Info[i] = shared.CloneStringInterfaceMap(m)
	}
	return snapshot
}

// Restore replaces the buffer's state with a snapshot taken from a buffer
// of identical geometry.
func (b *Buffer) Restore(snapshot *domainReplay.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domainReplay.ErrSnapshotMismatch)
	}
	if snapshot.Capacity != b.config.Capacity || snapshot.EnvNum != b.config.EnvNum {
		return fmt.Errorf("%w: snapshot %dx%d, buffer %dx%d",
			domainReplay.ErrSnapshotMismatch,
			snapshot.Capacity, snapshot.EnvNum,
			b.config.Capacity, b.config.EnvNum)
	}
	total := b.config.Capacity * b.config.EnvNum
	if len(snapshot.Rew) != total || len(snapshot.Terminated) != total ||
		len(snapshot.Truncated) != total || len(snapshot.Info) != total ||
		len(snapshot.Cursor) != b.config.EnvNum || len(snapshot.Size) != b.config.EnvNum ||
		len(snapshot.LastIndex) != b.config.EnvNum {
		return fmt.Errorf("%w: column lengths inconsistent with geometry", domainReplay.ErrSnapshotMismatch)
	}

	b.obsDim = snapshot.ObsDim
	b.actDim = snapshot.ActDim
	b.allocated = snapshot.Obs != nil
	if b.allocated {
		if len(snapshot.Obs) != total*b.obsDim || len(snapshot.ObsNext) != total*b.obsDim ||
			len(snapshot.Act) != total*b.actDim {
			return fmt.Errorf("%w: observation columns inconsistent with strides", domainReplay.ErrSnapshotMismatch)
		}
		b.obs = append([]float32(nil), snapshot.Obs...)
		b.act = append([]float32(nil), snapshot.Act...)
		b.obsNext = append([]float32(nil), snapshot.ObsNext...)
	} else {
		b.obs, b.act, b.obsNext = nil, nil, nil
	}

	copy(b.rew, snapshot.Rew)
	copy(b.terminated, snapshot.Terminated)
	copy(b.truncated, snapshot.Truncated)
	for i, m := range snapshot.Info {
		b.info[i] = shared.CloneStringInterfaceMap(m)
	}
	copy(b.cursor, snapshot.Cursor)
	copy(b.size, snapshot.Size)
	copy(b.lastIndex, snapshot.LastIndex)
	copy(b.epStart, snapshot.EpisodeStart)
	copy(b.epLen, snapshot.EpisodeLen)
	copy(b.epRet, snapshot.EpisodeRet)
	copy(b.epOpen, snapshot.EpisodeOpen)

	b.logger.Info().Int("stored", b.lenLocked()).Msg("replay buffer restored")
	return nil
}

// Private methods

func (b *Buffer) ensureColumns(transition domainReplay.Transition) error {
	if !b.allocated {
		b.obsDim = len(transition.Obs)
		b.actDim = len(transition.Act)
		total := b.config.Capacity * b.config.EnvNum
		b.obs = make([]float32, total*b.obsDim)
		b.obsNext = make([]float32, total*b.obsDim)
		b.act = make([]float32, total*b.actDim)
		b.allocated = true
	}
	if len(transition.Obs) != b.obsDim || len(transition.ObsNext) != b.obsDim {
		return fmt.Errorf("%w: obs width %d/%d, buffer %d",
			domainReplay.ErrDimensionMismatch, len(transition.Obs), len(transition.ObsNext), b.obsDim)
	}
	if len(transition.Act) != b.actDim {
		return fmt.Errorf("%w: act width %d, buffer %d",
			domainReplay.ErrDimensionMismatch, len(transition.Act), b.actDim)
	}
	return nil
}

func (b *Buffer) nextLocked(i int) int {
	b.mustStoredLocked(i)
	capacity := b.config.Capacity
	e := i / capacity
	if i == b.lastIndex[e] {
		return i
	}
	return e*capacity + (i%capacity+1)%capacity
}

func (b *Buffer) prevLocked(i int) int {
	b.mustStoredLocked(i)
	capacity := b.config.Capacity
	e := i / capacity
	if i == b.oldestLocked(e) {
		return i
	}
	return e*capacity + (i%capacity-1+capacity)%capacity
}

func (b *Buffer) oldestLocked(e int) int {
	if b.size[e] < b.config.Capacity {
		return e * b.config.Capacity
	}
	return e*b.config.Capacity + b.cursor[e]
}

func (b *Buffer) storedLocked(i int) bool {
	if i < 0 || i >= b.config.Capacity*b.config.EnvNum {
		return false
	}
	e := i / b.config.Capacity
	if b.size[e] == b.config.Capacity {
		return true
	}
	return i%b.config.Capacity < b.size[e]
}

func (b *Buffer) mustStoredLocked(i int) {
	if !b.storedLocked(i) {
		panic(fmt.Sprintf("replay: index %d is not a stored transition", i))
	}
}

func (b *Buffer) doneLocked(i int) bool {
	return b.terminated[i] || b.truncated[i]
}

func (b *Buffer) lenLocked() int {
	total := 0
	for _, s := range b.size {
		total += s
	}
	return total
}

func (b *Buffer) validIndicesLocked() []int {
	valid := make([]int, 0, b.lenLocked())
	for e := 0; e < b.config.EnvNum; e++ {
		base := e * b.config.Capacity
		for l := 0; l < b.size[e]; l++ {
			valid = append(valid, base+l)
		}
	}
	return valid
}

func (b *Buffer) obsRowLocked(i int) []float32 {
	b.mustStoredLocked(i)
	if b.obsDim == 0 {
		return nil
	}
	row := make([]float32, b.obsDim)
	copy(row, b.obs[i*b.obsDim:(i+1)*b.obsDim])
	return row
}

func (b *Buffer) obsNextRowLocked(i int) []float32 {
	if b.obsDim == 0 {
		return nil
	}
	row := make([]float32, b.obsDim)
	copy(row, b.obsNext[i*b.obsDim:(i+1)*b.obsDim])
	return row
}

func (b *Buffer) actRowLocked(i int) []float32 {
	if b.actDim == 0 {
		return nil
	}
	row := make([]float32, b.actDim)
	copy(row, b.act[i*b.actDim:(i+1)*b.actDim])
	return row
}
