package hll

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrydb/colstats/ndv"
)

func TestPlus_EstimateWithinTolerance(t *testing.T) {
	h := MustNew(14)
	const n = 10000
	for i := 0; i < n; i++ {
		h.Add([]byte(fmt.Sprintf("value-%d", i)))
	}

	got := h.Estimate()
	// HyperLogLog is approximate; assert it lands within 5% of truth rather
	// than pinning an exact value.
	lowerBound := uint64(n * 95 / 100)
	upperBound := uint64(n * 105 / 100)
	require.GreaterOrEqual(t, got, lowerBound)
	require.LessOrEqual(t, got, upperBound)
}

func TestPlus_MergeIsIdempotentUnion(t *testing.T) {
	a := MustNew(14)
	b := MustNew(14)

	for i := 0; i < 5000; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 5000; i++ {
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}

	require.True(t, a.CanMerge(b))
	require.NoError(t, a.Merge(b))

	combined := MustNew(14)
	for i := 0; i < 5000; i++ {
		combined.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 5000; i++ {
		combined.Add([]byte(fmt.Sprintf("b-%d", i)))
	}

	require.InEpsilon(t, float64(combined.Estimate()), float64(a.Estimate()), 0.01)
}

func TestPlus_CanMergeRejectsDifferentPrecision(t *testing.T) {
	a := MustNew(10)
	b := MustNew(14)
	require.False(t, a.CanMerge(b))
	require.False(t, b.CanMerge(a))
}

func TestPlus_CanMergeRejectsOtherTypes(t *testing.T) {
	a := MustNew(14)
	require.False(t, a.CanMerge(fakeEstimator{}))
}

func TestPlus_MarshalRoundTrip(t *testing.T) {
	a := MustNew(12)
	for i := 0; i < 2000; i++ {
		a.Add([]byte(fmt.Sprintf("item-%d", i)))
	}

	data, err := a.MarshalBinary()
	require.NoError(t, err)

	fam := Family{}
	restored, err := fam.FromBytes(data)
	require.NoError(t, err)
	require.Equal(t, a.Estimate(), restored.Estimate())
}

func TestFamily_EmptyLikeIsMergeIdentity(t *testing.T) {
	a := MustNew(14)
	for i := 0; i < 1000; i++ {
		a.Add([]byte(fmt.Sprintf("x-%d", i)))
	}

	fam := Family{}
	empty := fam.EmptyLike(a)
	require.NoError(t, empty.Merge(a))
	require.Equal(t, a.Estimate(), empty.Estimate())
}

func TestNew_RejectsOutOfRangePrecision(t *testing.T) {
	_, err := New(3)
	require.Error(t, err)

	_, err = New(19)
	require.Error(t, err)
}

func TestUnmarshalBinary_RejectsTruncatedInput(t *testing.T) {
	h := &Plus{}
	err := h.UnmarshalBinary([]byte{1, 2})
	require.Error(t, err)
}

type fakeEstimator struct{}

var _ ndv.Estimator = fakeEstimator{}

func (fakeEstimator) CanMerge(ndv.Estimator) bool          { return false }
func (fakeEstimator) Merge(ndv.Estimator) error            { return nil }
func (fakeEstimator) Estimate() uint64                     { return 0 }
func (fakeEstimator) MarshalBinary() ([]byte, error)       { return nil, nil }
