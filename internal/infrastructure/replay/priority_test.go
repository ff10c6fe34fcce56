package replay

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
)

func TestNewPriorityIndex_RejectsInvalidExponents(t *testing.T) {
	_, err := NewPriorityIndex(4, 0, 0.4, 0)
	assert.ErrorIs(t, err, domainReplay.ErrInvalidAlpha)

	_, err = NewPriorityIndex(4, 0.6, -0.1, 0)
	assert.ErrorIs(t, err, domainReplay.ErrInvalidBeta)

	_, err = NewPriorityIndex(4, 0.6, 0.4, -1)
	assert.ErrorIs(t, err, domainReplay.ErrInvalidEpsilon)
}

func TestPriorityIndex_InsertMaxTracksLargestSeen(t *testing.T) {
	index, err := NewPriorityIndex(4, 0.5, 0.4, 0)
	require.NoError(t, err)

	// Before any error is observed the running maximum is 1.
	index.InsertMax(0)
	assert.Equal(t, 1.0, index.Priority(0))

	// An error of 4 lifts the maximum; later inserts enter at that level.
	require.NoError(t, index.UpdatePriority([]int{0}, []float64{4}))
	assert.Equal(t, 4.0, index.MaxPriority())
	index.InsertMax(1)
	assert.InDelta(t, 2.0, index.Priority(1), 1e-12) // 4^0.5

	// Shrinking one slot's error never lowers the running maximum.
	require.NoError(t, index.UpdatePriority([]int{0}, []float64{0.5}))
	assert.Equal(t, 4.0, index.MaxPriority())
}

func TestPriorityIndex_PrioritiesUseAbsoluteError(t *testing.T) {
	index, err := NewPriorityIndex(4, 1, 0.4, 0)
	require.NoError(t, err)

	require.NoError(t, index.UpdatePriority([]int{0, 1}, []float64{-3, 3}))
	assert.Equal(t, index.Priority(0), index.Priority(1))
	assert.Equal(t, 3.0, index.Priority(0))
}

func TestPriorityIndex_UpdatePriorityRejectsLengthMismatch(t *testing.T) {
	index, err := NewPriorityIndex(4, 0.6, 0.4, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, index.UpdatePriority([]int{0, 1}, []float64{1}), domainReplay.ErrMalformedBatch)
}

func TestPriorityIndex_WeightsFollowInversePriority(t *testing.T) {
	index, err := NewPriorityIndex(4, 1, 0.5, 0)
	require.NoError(t, err)
	require.NoError(t, index.UpdatePriority([]int{0, 1, 2, 3}, []float64{1, 2, 3, 4}))

	weights := index.Weights([]int{0, 1, 2, 3}, 4)
	require.Len(t, weights, 4)

	// With beta = 0.5 the normalized weight of slot i is sqrt(p_min/p_i).
	assert.InDelta(t, 1.0, weights[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/2.0), weights[1], 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/3.0), weights[2], 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/4.0), weights[3], 1e-12)
}

func TestPriorityIndex_WeightsDegradeToUnitOnZeroMass(t *testing.T) {
	index, err := NewPriorityIndex(4, 0.6, 0.4, 0)
	require.NoError(t, err)

	weights := index.Weights([]int{0, 2}, 4)
	assert.Equal(t, []float64{1, 1}, weights)
}

func TestPriorityIndex_DrawConcentratesOnSoleMass(t *testing.T) {
	index, err := NewPriorityIndex(8, 0.6, 0.4, 0)
	require.NoError(t, err)
	require.NoError(t, index.UpdatePriority([]int{5}, []float64{2}))

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 64; i++ {
		assert.Equal(t, 5, index.Draw(rng))
	}
}

func TestPriorityIndex_LeavesRestoreRoundTrip(t *testing.T) {
	index, err := NewPriorityIndex(6, 0.6, 0.4, 1e-8)
	require.NoError(t, err)
	require.NoError(t, index.UpdatePriority([]int{0, 2, 5}, []float64{1, 4, 0.25}))

	leaves := index.Leaves(6)
	maxPriority := index.MaxPriority()

	restored, err := NewPriorityIndex(6, 0.6, 0.4, 1e-8)
	require.NoError(t, err)
	restored.Restore(leaves, maxPriority)

	assert.InDelta(t, index.Sum(), restored.Sum(), 1e-12)
	for i := 0; i < 6; i++ {
		assert.Equal(t, index.Priority(i), restored.Priority(i), "slot %d", i)
	}
	assert.Equal(t, maxPriority, restored.MaxPriority())
}
