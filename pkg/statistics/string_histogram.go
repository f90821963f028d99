package statistics

import (
	"math"

	"storelite/pkg/types"
)

// stringHistMin and stringHistMax bound the integer domain STRING values
// are projected into before being histogrammed. Strings compare
// lexicographically, so encoding a string's leading bytes as a big
// weighted integer preserves ordering closely enough for bucket
// selectivity estimates.
const (
	stringHistMin int32 = 0
	stringHistMax int32 = math.MaxInt32 - 1
)

// StringHistogram estimates selectivity over a STRING column by encoding
// each string's leading bytes into an integer and delegating to an
// IntHistogram over that projected domain.
type StringHistogram struct {
	inner *IntHistogram
}

// NewStringHistogram builds an empty histogram with the given bucket count.
func NewStringHistogram(buckets int) (*StringHistogram, error) {
	inner, err := NewIntHistogram(buckets, stringHistMin, stringHistMax)
	if err != nil {
		return nil, err
	}
	return &StringHistogram{inner: inner}, nil
}

// stringToInt projects s onto [stringHistMin, stringHistMax] using its
// first four bytes, most significant first, so lexicographic order is
// approximately preserved.
func stringToInt(s string) int32 {
	var v int64
	for i := 0; i < 4; i++ {
		var b int64
		if i < len(s) {
			b = int64(s[i])
		}
		v += b << uint(8*(3-i))
	}

	if v < int64(stringHistMin) {
		v = int64(stringHistMin)
	}
	if v > int64(stringHistMax) {
		v = int64(stringHistMax)
	}
	return int32(v)
}

// AddValue records one observation of s.
func (h *StringHistogram) AddValue(s string) error {
	return h.inner.AddValue(stringToInt(s))
}

// EstimateSelectivity returns the estimated fraction of values satisfying
// "field op s".
func (h *StringHistogram) EstimateSelectivity(op types.Predicate, s string) float64 {
	if op == types.Like {
		return h.inner.AvgSelectivity()
	}
	return h.inner.EstimateSelectivity(op, stringToInt(s))
}

func (h *StringHistogram) AvgSelectivity() float64 {
	return h.inner.AvgSelectivity()
}
