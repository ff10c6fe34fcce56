package returns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
)

func TestNewNormalizer_RejectsNonPositiveEpsilon(t *testing.T) {
	_, err := NewNormalizer(false, 0)
	assert.ErrorIs(t, err, domainReturns.ErrInvalidEpsilonVar)

	_, err = NewNormalizer(false, -1e-8)
	assert.ErrorIs(t, err, domainReturns.ErrInvalidEpsilonVar)
}

func TestNewNormalizerFromConfig(t *testing.T) {
	config := domainReturns.DefaultConfig()
	norm, err := NewNormalizerFromConfig(config)
	require.NoError(t, err)
	assert.Nil(t, norm, "normalization disabled by default")

	config.Normalize = true
	norm, err = NewNormalizerFromConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, norm)
}

func TestNormalizer_StatisticsLagOneBatch(t *testing.T) {
	norm, err := NewNormalizer(false, 1e-8)
	require.NoError(t, err)

	// The first batch sees empty statistics: scale is sqrt(epsilon).
	first := []float64{1, 3}
	norm.Apply(first)
	assert.InDelta(t, 1/math.Sqrt(1e-8), first[0], 1e-6)
	assert.InDelta(t, 3/math.Sqrt(1e-8), first[1], 1e-6)

	// The second batch is scaled by the first batch's deviation (1), not
	// by statistics that include itself.
	second := []float64{2, 4}
	norm.Apply(second)
	assert.InDelta(t, 2.0, second[0], 1e-6)
	assert.InDelta(t, 4.0, second[1], 1e-6)

	assert.Equal(t, 4.0, norm.Stats().Count())
}

func TestNormalizer_SubtractMeanCenters(t *testing.T) {
	norm, err := NewNormalizer(true, 1e-8)
	require.NoError(t, err)

	norm.Apply([]float64{1, 3}) // fits mean 2, deviation 1

	batch := []float64{2, 4}
	norm.Apply(batch)
	assert.InDelta(t, 0.0, batch[0], 1e-6)
	assert.InDelta(t, 2.0, batch[1], 1e-6)
}

func TestNormalizer_UnnormalizeInverts(t *testing.T) {
	norm, err := NewNormalizer(true, 1e-8)
	require.NoError(t, err)
	norm.Stats().Update([]float64{1, 3})

	values := []float64{0.5, -0.5}
	original := append([]float64(nil), values...)
	norm.Unnormalize(values)
	assert.InDelta(t, 0.5*norm.Scale()+2, values[0], 1e-12)
	assert.InDelta(t, -0.5*norm.Scale()+2, values[1], 1e-12)

	// Round-tripping through Apply would fold the batch into the
	// statistics, so invert by hand against the frozen scale instead.
	for i := range values {
		values[i] = (values[i] - 2) / norm.Scale()
	}
	assert.InDelta(t, original[0], values[0], 1e-12)
	assert.InDelta(t, original[1], values[1], 1e-12)
}

func TestNormalizer_EmptyBatchIsNoOp(t *testing.T) {
	norm, err := NewNormalizer(false, 1e-8)
	require.NoError(t, err)

	norm.Apply(nil)
	assert.Equal(t, 0.0, norm.Stats().Count())
}

func TestNormalizer_SnapshotRestoreRoundTrip(t *testing.T) {
	norm, err := NewNormalizer(false, 1e-8)
	require.NoError(t, err)
	norm.Apply([]float64{1, 2, 3})

	snapshot := norm.Snapshot()

	restored, err := NewNormalizer(false, 1e-8)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snapshot))
	assert.Equal(t, norm.Scale(), restored.Scale())
	assert.Equal(t, norm.Stats().Mean(), restored.Stats().Mean())

	norm.Reset()
	assert.Equal(t, 0.0, norm.Stats().Count())
}

func TestEstimator_NStepReturnNormalizationLags(t *testing.T) {
	buffer := newEstimatorBuffer(t, 8, 1)
	i0 := addStep(t, buffer, 0, 1, false, false)
	i1 := addStep(t, buffer, 0, 3, true, false)

	estimator := newTestEstimator(t, func(c *domainReturns.Config) {
		c.Gamma = 0
		c.NStep = 1
	})
	norm, err := NewNormalizer(false, 1e-8)
	require.NoError(t, err)
	// Pre-fit so the lagged scale is sqrt(1+epsilon): the raw targets 1
	// and 3 should come back essentially unchanged.
	norm.Stats().Update([]float64{0, 2})

	targets, err := estimator.NStepReturn(buffer, []int{i0, i1}, nil, norm)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, targets[0], 1e-6)
	assert.InDelta(t, 3.0, targets[1], 1e-6)
	assert.Equal(t, 4.0, norm.Stats().Count(), "raw targets folded in afterward")
}
