package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storelite/pkg/types"
)

func TestIntHistogramRejectsInvertedRange(t *testing.T) {
	_, err := NewIntHistogram(10, 100, 0)
	assert.Error(t, err)
}

func TestIntHistogramRejectsZeroBuckets(t *testing.T) {
	_, err := NewIntHistogram(0, 0, 100)
	assert.Error(t, err)
}

func TestIntHistogramAddValueOutOfRange(t *testing.T) {
	h, err := NewIntHistogram(10, 0, 100)
	require.NoError(t, err)
	assert.Error(t, h.AddValue(101))
	assert.Error(t, h.AddValue(-1))
}

func TestIntHistogramEqualitySelectivity(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	require.NoError(t, err)
	for v := int32(1); v <= 100; v++ {
		require.NoError(t, h.AddValue(v))
	}

	sel := h.EstimateSelectivity(types.Equals, 50)
	assert.InDelta(t, 0.01, sel, 0.005)
}

func TestIntHistogramAvgSelectivityIsConstant(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, h.AvgSelectivity())
}

func TestIntHistogramGreaterThanBounds(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	require.NoError(t, err)
	for v := int32(1); v <= 100; v++ {
		require.NoError(t, h.AddValue(v))
	}

	assert.Equal(t, float64(0), h.EstimateSelectivity(types.GreaterThan, 100))
	assert.Equal(t, float64(1), h.EstimateSelectivity(types.GreaterThan, 0))
}

func TestIntHistogramLessThanBounds(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	require.NoError(t, err)
	for v := int32(1); v <= 100; v++ {
		require.NoError(t, h.AddValue(v))
	}

	assert.Equal(t, float64(0), h.EstimateSelectivity(types.LessThan, 1))
	assert.Equal(t, float64(1), h.EstimateSelectivity(types.LessThan, 101))
}

func TestIntHistogramNotEqualIsComplementOfEqual(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	require.NoError(t, err)
	for v := int32(1); v <= 100; v++ {
		require.NoError(t, h.AddValue(v))
	}

	eq := h.EstimateSelectivity(types.Equals, 50)
	neq := h.EstimateSelectivity(types.NotEqual, 50)
	assert.InDelta(t, 1.0, eq+neq, 1e-9)
}

func TestIntHistogramEmptyHistogramSelectivityIsZero(t *testing.T) {
	h, err := NewIntHistogram(10, 0, math.MaxInt32-1)
	require.NoError(t, err)
	assert.Equal(t, float64(0), h.EstimateSelectivity(types.Equals, 5))
}
