package replay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumTree_RoundsBoundUpToPowerOfTwo(t *testing.T) {
	tree := newSumTree(5)
	assert.Equal(t, 8, tree.bound)
	assert.Len(t, tree.nodes, 16)

	tree = newSumTree(8)
	assert.Equal(t, 8, tree.bound)

	tree = newSumTree(1)
	assert.Equal(t, 1, tree.bound)
}

func TestSumTree_UpdateMaintainsSum(t *testing.T) {
	tree := newSumTree(5)
	values := []float64{0.5, 0, 2, 1.25, 3}
	for i, v := range values {
		tree.update(i, v)
	}

	assert.Equal(t, 6.75, tree.sum())
	for i, v := range values {
		assert.Equal(t, v, tree.get(i))
	}

	// Overwriting a leaf replaces its mass instead of accumulating it.
	tree.update(2, 0.25)
	assert.Equal(t, 5.0, tree.sum())
}

func TestSumTree_PrefixSumIndex(t *testing.T) {
	tree := newSumTree(4)
	for i, v := range []float64{1, 2, 3, 4} {
		tree.update(i, v)
	}

	// Leaf i owns the half-open prefix range [cum(i-1), cum(i)).
	tests := []struct {
		prefix   float64
		expected int
	}{
		{0, 0},
		{0.99, 0},
		{1, 1},
		{2.99, 1},
		{3, 2},
		{5.99, 2},
		{6, 3},
		{9.99, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tree.prefixSumIndex(tt.prefix), "prefix %v", tt.prefix)
	}
}

func TestSumTree_PrefixSumSkipsZeroLeaves(t *testing.T) {
	tree := newSumTree(4)
	tree.update(1, 4)
	tree.update(3, 6)

	assert.Equal(t, 1, tree.prefixSumIndex(0))
	assert.Equal(t, 1, tree.prefixSumIndex(3.99))
	assert.Equal(t, 3, tree.prefixSumIndex(4))
	assert.Equal(t, 3, tree.prefixSumIndex(9.99))
}

func TestSumTree_PrefixSumMatchesLinearScan(t *testing.T) {
	const size = 37
	tree := newSumTree(size)
	rng := rand.New(rand.NewSource(3))

	values := make([]float64, size)
	for i := range values {
		if rng.Intn(3) == 0 {
			continue // leave some leaves empty
		}
		values[i] = rng.Float64() * 10
		tree.update(i, values[i])
	}

	total := 0.0
	for _, v := range values {
		total += v
	}
	require.InDelta(t, total, tree.sum(), 1e-9)

	for trial := 0; trial < 200; trial++ {
		prefix := rng.Float64() * tree.sum()
		got := tree.prefixSumIndex(prefix)

		expected := 0
		cumulative := values[0]
		for prefix >= cumulative && expected < size-1 {
			expected++
			cumulative += values[expected]
		}
		assert.Equal(t, expected, got, "prefix %v", prefix)
	}
}

func TestSumTree_SetLeavesRebuilds(t *testing.T) {
	tree := newSumTree(6)
	for i := 0; i < 6; i++ {
		tree.update(i, float64(i+1))
	}

	tree.setLeaves([]float64{0, 0, 5, 0, 0, 0})
	assert.Equal(t, 5.0, tree.sum())
	assert.Equal(t, 5.0, tree.get(2))
	assert.Equal(t, 0.0, tree.get(0))
	assert.Equal(t, 2, tree.prefixSumIndex(2.5))
}

func TestSumTree_LeavesCopy(t *testing.T) {
	tree := newSumTree(4)
	tree.update(0, 1)
	tree.update(1, 2)

	leaves := tree.leaves(4)
	assert.Equal(t, []float64{1, 2, 0, 0}, leaves)

	// The returned slice is detached from the tree.
	leaves[0] = 100
	assert.Equal(t, 1.0, tree.get(0))
}
