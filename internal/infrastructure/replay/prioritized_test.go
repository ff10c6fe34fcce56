package replay

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
)

func newTestPrioritized(t *testing.T, capacity int, epsilon float64) *PrioritizedBuffer {
	t.Helper()
	buffer, err := NewPrioritizedBuffer(domainReplay.PrioritizedConfig{
		Config:          domainReplay.Config{Capacity: capacity, EnvNum: 1, StackNum: 1, Seed: 7},
		Alpha:           0.6,
		Beta:            0.4,
		EpsilonPriority: epsilon,
	}, zerolog.Nop())
	require.NoError(t, err)
	return buffer
}

func TestNewPrioritizedBuffer_RejectsInvalidConfig(t *testing.T) {
	base := domainReplay.Config{Capacity: 4, EnvNum: 1, StackNum: 1}

	tests := []struct {
		name     string
		config   domainReplay.PrioritizedConfig
		expected error
	}{
		{
			name:     "zero alpha",
			config:   domainReplay.PrioritizedConfig{Config: base, Alpha: 0, Beta: 0.4},
			expected: domainReplay.ErrInvalidAlpha,
		},
		{
			name:     "negative beta",
			config:   domainReplay.PrioritizedConfig{Config: base, Alpha: 0.6, Beta: -0.1},
			expected: domainReplay.ErrInvalidBeta,
		},
		{
			name:     "negative epsilon",
			config:   domainReplay.PrioritizedConfig{Config: base, Alpha: 0.6, Beta: 0.4, EpsilonPriority: -1},
			expected: domainReplay.ErrInvalidEpsilon,
		},
		{
			name:     "bad geometry",
			config:   domainReplay.PrioritizedConfig{Config: domainReplay.Config{Capacity: 0, EnvNum: 1, StackNum: 1}, Alpha: 0.6, Beta: 0.4},
			expected: domainReplay.ErrInvalidCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrioritizedBuffer(tt.config, zerolog.Nop())
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestPrioritizedBuffer_SampleErrors(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)

	_, _, err := buffer.Sample(3)
	assert.ErrorIs(t, err, domainReplay.ErrInsufficientData)

	buffer.Add(step(0, false, false), 0)
	_, _, err = buffer.Sample(0)
	assert.ErrorIs(t, err, domainReplay.ErrInvalidBatchSize)
}

func TestPrioritizedBuffer_SingleNonzeroPriorityWinsEveryDraw(t *testing.T) {
	// With a zero epsilon a zero error really zeroes the slot's mass, so
	// one surviving slot must absorb every draw.
	buffer := newTestPrioritized(t, 5, 0)

	for i := 0; i < 5; i++ {
		_, err := buffer.Add(step(float64(i), false, false), 0)
		require.NoError(t, err)
	}
	require.NoError(t, buffer.UpdatePriority([]int{0, 1, 2, 4}, []float64{0, 0, 0, 0}))
	require.NoError(t, buffer.UpdatePriority([]int{3}, []float64{2.5}))

	indices, weights, err := buffer.Sample(16)
	require.NoError(t, err)
	require.Len(t, indices, 16)
	require.Len(t, weights, 16)
	for row := range indices {
		assert.Equal(t, 3, indices[row])
		assert.InDelta(t, 1.0, weights[row], 1e-12)
	}
}

func TestPrioritizedBuffer_SampleWithReplacementBeyondStored(t *testing.T) {
	buffer := newTestPrioritized(t, 8, 1e-8)
	buffer.Add(step(0, false, false), 0)
	buffer.Add(step(1, false, false), 0)

	indices, weights, err := buffer.Sample(10)
	require.NoError(t, err)
	assert.Len(t, indices, 10)
	assert.Len(t, weights, 10)
	for _, i := range indices {
		assert.True(t, buffer.Stored(i))
	}
}

func TestPrioritizedBuffer_WeightsMaxIsOne(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)
	for i := 0; i < 4; i++ {
		buffer.Add(step(float64(i), false, false), 0)
	}
	require.NoError(t, buffer.UpdatePriority([]int{0, 1, 2, 3}, []float64{0.1, 1, 2, 4}))

	_, weights, err := buffer.Sample(32)
	require.NoError(t, err)

	maxWeight := 0.0
	for _, w := range weights {
		assert.Greater(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0000000000001)
		if w > maxWeight {
			maxWeight = w
		}
	}
	// Normalization pins the batch maximum at 1 no matter which indices
	// the draws happened to land on.
	assert.InDelta(t, 1.0, maxWeight, 1e-9)
}

func TestPrioritizedBuffer_ZeroBetaMeansUnitWeights(t *testing.T) {
	buffer, err := NewPrioritizedBuffer(domainReplay.PrioritizedConfig{
		Config:          domainReplay.Config{Capacity: 4, EnvNum: 1, StackNum: 1, Seed: 7},
		Alpha:           0.6,
		Beta:            0,
		EpsilonPriority: 1e-8,
	}, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		buffer.Add(step(float64(i), false, false), 0)
	}
	require.NoError(t, buffer.UpdatePriority([]int{0, 1, 2, 3}, []float64{0.5, 1, 2, 4}))

	_, weights, err := buffer.Sample(8)
	require.NoError(t, err)
	for _, w := range weights {
		assert.Equal(t, 1.0, w)
	}
}

func TestPrioritizedBuffer_UpdatePriorityValidation(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)
	buffer.Add(step(0, false, false), 0)

	err := buffer.UpdatePriority([]int{0, 1}, []float64{1})
	assert.ErrorIs(t, err, domainReplay.ErrMalformedBatch)

	err = buffer.UpdatePriority([]int{2}, []float64{1})
	assert.ErrorIs(t, err, domainReplay.ErrIndexOutOfRange)
}

func TestPrioritizedBuffer_SetBeta(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)

	assert.ErrorIs(t, buffer.SetBeta(-0.5), domainReplay.ErrInvalidBeta)
	assert.NoError(t, buffer.SetBeta(1.0))
}

func TestPrioritizedBuffer_SnapshotRestoreRoundTrip(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)
	for i := 0; i < 6; i++ {
		_, err := buffer.Add(step(float64(i), i == 2, false), 0)
		require.NoError(t, err)
	}
	require.NoError(t, buffer.UpdatePriority([]int{0, 1}, []float64{3, 0.25}))
	snapshot := buffer.Snapshot()

	restored := newTestPrioritized(t, 4, 1e-8)
	require.NoError(t, restored.Restore(snapshot))
	assert.Equal(t, snapshot, restored.Snapshot())
}

func TestPrioritizedBuffer_RestoreRejectsMismatch(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)
	assert.ErrorIs(t, buffer.Restore(nil), domainReplay.ErrSnapshotMismatch)

	other := newTestPrioritized(t, 8, 1e-8)
	assert.ErrorIs(t, other.Restore(buffer.Snapshot()), domainReplay.ErrSnapshotMismatch)
}

func TestPrioritizedBuffer_Reset(t *testing.T) {
	buffer := newTestPrioritized(t, 4, 1e-8)
	for i := 0; i < 4; i++ {
		buffer.Add(step(float64(i), false, false), 0)
	}
	require.NoError(t, buffer.UpdatePriority([]int{0}, []float64{100}))

	buffer.Reset()

	assert.Equal(t, 0, buffer.Len())
	_, _, err := buffer.Sample(1)
	assert.ErrorIs(t, err, domainReplay.ErrInsufficientData)

	// The cleared mass must not bias post-reset sampling.
	result, err := buffer.Add(step(9, false, false), 0)
	require.NoError(t, err)
	indices, weights, err := buffer.Sample(4)
	require.NoError(t, err)
	for row := range indices {
		assert.Equal(t, result.Index, indices[row])
		assert.Equal(t, 1.0, weights[row])
	}
}
