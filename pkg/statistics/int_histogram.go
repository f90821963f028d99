// Package statistics implements per-column selectivity histograms and
// per-table scan cost estimation, used by an external query planner to
// choose join orders. Building the plan itself is out of scope here.
package statistics

import (
	"fmt"
	"math"

	"storelite/pkg/dberrors"
	"storelite/pkg/types"
)

// IntHistogram is a fixed-width equi-range histogram over one INT column:
// the value domain [min, max] is split into an equal number of buckets,
// and each bucket counts how many observed values fell in its range.
type IntHistogram struct {
	buckets     []int
	min         int32
	max         int32
	bucketWidth float64
	numVals     int
}

// NewIntHistogram builds an empty histogram with the given bucket count
// over the value domain [min, max].
func NewIntHistogram(buckets int, min, max int32) (*IntHistogram, error) {
	if max < min {
		return nil, dberrors.New(dberrors.CategoryArgument, "BAD_RANGE", fmt.Sprintf("max %d is less than min %d", max, min))
	}
	if buckets <= 0 {
		return nil, dberrors.New(dberrors.CategoryArgument, "BAD_BUCKET_COUNT", "histogram must have at least one bucket")
	}

	return &IntHistogram{
		buckets:     make([]int, buckets),
		min:         min,
		max:         max,
		bucketWidth: float64(int64(max)-int64(min)+1) / float64(buckets),
	}, nil
}

// AddValue records one observation of v.
func (h *IntHistogram) AddValue(v int32) error {
	if v < h.min || v > h.max {
		return dberrors.New(dberrors.CategoryArgument, "VALUE_OUT_OF_RANGE",
			fmt.Sprintf("value %d is outside histogram range [%d, %d]", v, h.min, h.max))
	}
	h.buckets[h.bucketIndex(v)]++
	h.numVals++
	return nil
}

func (h *IntHistogram) bucketIndex(v int32) int {
	return int(float64(v-h.min) / h.bucketWidth)
}

func (h *IntHistogram) minInBucket(bucket int) int32 {
	return int32(math.Ceil(float64(bucket)*h.bucketWidth)) + h.min
}

func (h *IntHistogram) maxInBucket(bucket int) int32 {
	if h.minInBucket(bucket) == h.minInBucket(bucket+1) {
		return h.minInBucket(bucket)
	}
	return h.minInBucket(bucket+1) - 1
}

// EstimateSelectivity returns the estimated fraction of values satisfying
// "field op v" for the column this histogram summarizes.
func (h *IntHistogram) EstimateSelectivity(op types.Predicate, v int32) float64 {
	switch op {
	case types.Equals, types.Like:
		return h.estimateEqual(v)
	case types.NotEqual:
		return 1.0 - h.estimateEqual(v)
	case types.GreaterThan:
		return h.estimateGreater(v)
	case types.GreaterThanOrEqual:
		return h.estimateEqual(v) + h.estimateGreater(v)
	case types.LessThan:
		return h.estimateLess(v)
	case types.LessThanOrEqual:
		return h.estimateLess(v) + h.estimateEqual(v)
	default:
		return 0
	}
}

func (h *IntHistogram) estimateEqual(v int32) float64 {
	if v < h.min || v > h.max || h.numVals == 0 {
		return 0
	}
	bucket := h.bucketIndex(v)
	height := h.buckets[bucket]
	width := float64(h.maxInBucket(bucket)-h.minInBucket(bucket)) + 1
	return float64(height) / (width * float64(h.numVals))
}

func (h *IntHistogram) estimateGreater(v int32) float64 {
	if v > h.max {
		return 0
	}
	if v < h.min {
		return 1
	}
	if h.numVals == 0 {
		return 0
	}

	bucket := h.bucketIndex(v)
	height := h.buckets[bucket]
	width := float64(h.maxInBucket(bucket)-h.minInBucket(bucket)) + 1
	selectivity := float64(h.maxInBucket(bucket)-v) * float64(height) / (width * float64(h.numVals))

	for i := bucket + 1; i < len(h.buckets); i++ {
		selectivity += float64(h.buckets[i]) / float64(h.numVals)
	}
	return selectivity
}

func (h *IntHistogram) estimateLess(v int32) float64 {
	if v < h.min {
		return 0
	}
	if v > h.max {
		return 1
	}
	if h.numVals == 0 {
		return 0
	}

	bucket := h.bucketIndex(v)
	height := h.buckets[bucket]
	width := float64(h.maxInBucket(bucket)-h.minInBucket(bucket)) + 1
	selectivity := float64(v-h.minInBucket(bucket)) * float64(height) / (width * float64(h.numVals))

	for i := 0; i < bucket; i++ {
		selectivity += float64(h.buckets[i]) / float64(h.numVals)
	}
	return selectivity
}

// AvgSelectivity returns a rough selectivity to use when no constant is
// known ahead of time.
func (h *IntHistogram) AvgSelectivity() float64 {
	return 0.5
}

func (h *IntHistogram) String() string {
	return fmt.Sprintf("IntHistogram(min=%d, max=%d, buckets=%v)", h.min, h.max, h.buckets)
}
