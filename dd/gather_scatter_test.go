package dd

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exchange drives a gather on the sender handle and a scatter on the receiver
// handle for the same entity, through a fresh stream.
func exchange[T any](t *testing.T, from, to DataHandle[T], eFrom, eTo Entity) {
	t.Helper()
	buf := NewFIFO[T](0)
	require.NoError(t, from.Gather(buf, eFrom))
	require.NoError(t, to.Scatter(buf, eTo, from.Size(eFrom)))
	require.Equal(t, 0, buf.Remaining())
}

func TestMinRoundTripIdentity(t *testing.T) {
	var (
		s = testSpace{dofs: map[int][]int{0: {0}}}
		v = SliceVector[float64]{2.5}
		h = NewMinDataHandle[float64](s, v)
		e = element(0, InteriorEntity)
	)
	exchange[float64](t, h, h, e, e)
	assert.Equal(t, 2.5, v[0])
}

func TestMinReduction(t *testing.T) {
	var (
		values = []float64{3, -1, 7, 0, math.Inf(1), -2.5}
		s      = testSpace{dofs: map[int][]int{0: {0}}}
		e      = element(0, BorderEntity)
	)
	for _, a := range values {
		for _, b := range values {
			local := SliceVector[float64]{a}
			remote := SliceVector[float64]{b}
			exchange[float64](t, NewMinDataHandle[float64](s, remote), NewMinDataHandle[float64](s, local), e, e)
			assert.Equal(t, math.Min(a, b), local[0])
			assert.Equal(t, b, remote[0], "gather must not touch the sender")
		}
	}
	{ // Folding min over every permutation of the incoming values
		incoming := []float64{4, 1, 9}
		perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
		for _, perm := range perms {
			local := SliceVector[float64]{5}
			h := NewMinDataHandle[float64](s, local)
			for _, p := range perm {
				peer := NewMinDataHandle[float64](s, SliceVector[float64]{incoming[p]})
				exchange[float64](t, peer, h, e, e)
			}
			assert.Equal(t, 1., local[0])
		}
	}
}

func TestMaxAndSumReduction(t *testing.T) {
	var (
		s = testSpace{dofs: map[int][]int{0: {1, 0}}}
		e = element(0, InteriorEntity)
	)
	{
		local := SliceVector[int]{1, 8}
		exchange[int](t, NewMaxDataHandle[int](s, SliceVector[int]{3, 3}), NewMaxDataHandle[int](s, local), e, e)
		assert.Equal(t, SliceVector[int]{3, 8}, local)
	}
	{
		local := NewDenseVector(2, []float64{1, 2})
		exchange[float64](t, NewSumDataHandle[float64](s, NewDenseVector(2, []float64{10, 20})),
			NewSumDataHandle[float64](s, local), e, e)
		assert.Equal(t, []float64{11, 22}, local.Raw().RawVector().Data)
	}
}

func TestGhostIdempotence(t *testing.T) {
	var (
		s = testSpace{dofs: map[int][]int{0: {0, 1}, 1: {2}}}
	)
	for _, pt := range []PartitionType{InteriorEntity, BorderEntity, OverlapEntity, GhostEntity} {
		var (
			e      = element(0, pt)
			ghost  = pt == OverlapEntity || pt == GhostEntity
			sender = NewGhostDataHandle(s, NewSliceVector[bool](3), true)
			once   = NewSliceVector[bool](3)
			twice  = NewSliceVector[bool](3)
		)
		// Stale values must not influence the result
		twice[0] = !ghost
		hOnce := NewGhostDataHandle(s, once, false)
		hTwice := NewGhostDataHandle(s, twice, false)
		exchange[bool](t, sender, hOnce, element(0, InteriorEntity), e)
		exchange[bool](t, sender, hTwice, element(0, InteriorEntity), e)
		exchange[bool](t, sender, hTwice, element(0, InteriorEntity), e)
		assert.Equal(t, once[:2], twice[:2], pt.String())
		assert.Equal(t, SliceVector[bool]{ghost, ghost}, once[:2], pt.String())
		assert.False(t, once[2], "other entities untouched")
	}
	{ // init resets the vector
		v := SliceVector[bool]{true, true, true}
		NewGhostDataHandle(s, v, true)
		assert.Equal(t, SliceVector[bool]{false, false, false}, v)
	}
}

func TestDisjointPartitioning(t *testing.T) {
	var (
		s = testSpace{dofs: map[int][]int{0: {0, 1}}}
	)
	{ // An overlap copy gives up its own claim and takes the owner's rank
		v := NewSliceVector[int](2)
		h := NewDisjointPartitioningDataHandle[int](s, v, 3, true)
		assert.Equal(t, SliceVector[int]{3, 3}, v)
		owner := NewDisjointPartitioningDataHandle[int](s, NewSliceVector[int](2), 5, true)
		exchange[int](t, owner, h, element(0, InteriorEntity), element(0, OverlapEntity))
		assert.Equal(t, SliceVector[int]{5, 5}, v)
		// A later, lower claim wins, a higher one does not
		exchange[int](t, NewDisjointPartitioningDataHandle[int](s, NewSliceVector[int](2), 4, true), h,
			element(0, BorderEntity), element(0, OverlapEntity))
		assert.Equal(t, SliceVector[int]{4, 4}, v)
		exchange[int](t, NewDisjointPartitioningDataHandle[int](s, NewSliceVector[int](2), 6, true), h,
			element(0, BorderEntity), element(0, OverlapEntity))
		assert.Equal(t, SliceVector[int]{4, 4}, v)
	}
	{ // A border copy keeps its claim against higher ranks
		v := NewSliceVector[int](2)
		h := NewDisjointPartitioningDataHandle[int](s, v, 1, true)
		exchange[int](t, NewDisjointPartitioningDataHandle[int](s, NewSliceVector[int](2), 2, true), h,
			element(0, BorderEntity), element(0, BorderEntity))
		assert.Equal(t, SliceVector[int]{1, 1}, v)
		exchange[int](t, NewDisjointPartitioningDataHandle[int](s, NewSliceVector[int](2), 0, true), h,
			element(0, BorderEntity), element(0, BorderEntity))
		assert.Equal(t, SliceVector[int]{0, 0}, v)
	}
	{ // Received unknown leaves a ghost copy unowned
		v := NewSliceVector[uint16](2)
		h := NewDisjointPartitioningDataHandle[uint16](s, v, 2, true)
		exchange[uint16](t, NewDisjointPartitioningDataHandle[uint16](s, NewSliceVector[uint16](2), math.MaxUint16, false), h,
			element(0, InteriorEntity), element(0, GhostEntity))
		assert.Equal(t, SliceVector[uint16]{math.MaxUint16, math.MaxUint16}, v)
	}
}

func TestUnknownRank(t *testing.T) {
	assert.Equal(t, int8(math.MaxInt8), UnknownRank[int8]())
	assert.Equal(t, int32(math.MaxInt32), UnknownRank[int32]())
	assert.Equal(t, int(math.MaxInt), UnknownRank[int]())
	assert.Equal(t, uint16(math.MaxUint16), UnknownRank[uint16]())
	assert.Equal(t, uint64(math.MaxUint64), UnknownRank[uint64]())
}

func TestSharedFlagMonotonic(t *testing.T) {
	var (
		s      = testSpace{dofs: map[int][]int{0: {0, 1}, 1: {}}}
		v      = NewSliceVector[bool](2)
		h      = NewSharedDOFDataHandle(s, v, true)
		e      = element(0, BorderEntity)
		empty  = NewSharedDOFDataHandle(s, NewSliceVector[bool](2), true)
		filled = NewSharedDOFDataHandle(s, NewSliceVector[bool](2), true)
	)
	// A peer without DOFs does not mark anything
	exchange[bool](t, empty, h, element(1, BorderEntity), e)
	assert.Equal(t, SliceVector[bool]{false, false}, v)
	exchange[bool](t, filled, h, e, e)
	assert.Equal(t, SliceVector[bool]{true, true}, v)
	// and never clears a mark
	exchange[bool](t, empty, h, element(1, BorderEntity), e)
	assert.Equal(t, SliceVector[bool]{true, true}, v)
}

func TestSizeMismatch(t *testing.T) {
	var (
		s    = testSpace{dofs: map[int][]int{0: {0, 1, 2}}}
		fill = func() *FIFO[float64] {
			buf := NewFIFO[float64](5)
			for i := 0; i < 5; i++ {
				buf.Write(-1)
			}
			return buf
		}
	)
	{ // DOFs expected on the receiving partition
		v := SliceVector[float64]{1, 2, 3}
		h := NewMinDataHandle[float64](s, v)
		err := h.Scatter(fill(), element(0, InteriorEntity), 5)
		require.Error(t, err)
		var sm *ErrSizeMismatch
		require.True(t, errors.As(err, &sm))
		assert.Equal(t, 3, sm.Have)
		assert.Equal(t, 5, sm.Received)
		assert.ErrorIs(t, err, ErrProtocol)
		assert.Contains(t, err.Error(), "have 3 DOFs, but received 5")
		assert.Equal(t, SliceVector[float64]{1, 2, 3}, v)
	}
	{ // No DOFs expected: drain, discard and skip the commit
		v := SliceVector[float64]{1, 2, 3}
		policy := NewDOFGatherScatter[float64](MinValue[float64]{})
		policy.Partitions = InteriorBorderPartitions
		h := NewSpaceDataHandle[float64](s, v, DOFDescriptor{}, policy)
		buf := fill()
		require.NoError(t, h.Scatter(buf, element(0, OverlapEntity), 5))
		assert.Equal(t, 5, buf.Consumed())
		assert.Equal(t, SliceVector[float64]{1, 2, 3}, v)
	}
	{ // Draining more than was sent is an underflow
		policy := NewDOFGatherScatter[float64](MinValue[float64]{})
		policy.Partitions = InteriorBorderPartitions
		h := NewSpaceDataHandle[float64](s, NewSliceVector[float64](3), DOFDescriptor{}, policy)
		assert.ErrorIs(t, h.Scatter(fill(), element(0, GhostEntity), 6), ErrBufferUnderflow)
	}
}

func TestSpaceDataHandleContract(t *testing.T) {
	var (
		s    = testSpace{dofs: map[int][]int{0: {0, 1}}}
		h    = NewMinDataHandle[float64](s, NewSliceVector[float64](2))
		face = testEntity{index: 3, codim: 1}
	)
	assert.True(t, h.Contains(2, 0))
	assert.False(t, h.Contains(2, 1))
	assert.True(t, h.FixedSize(2, 0))
	assert.Equal(t, 2, h.Size(element(0, InteriorEntity)))
	assert.Equal(t, 0, h.Size(face))
	assert.ErrorIs(t, h.Gather(NewFIFO[float64](0), face), ErrNotImplemented)
	assert.ErrorIs(t, h.Scatter(NewFIFO[float64](0), face, 0), ErrNotImplemented)
}

func TestNeighborDataHandle(t *testing.T) {
	var (
		ns = NewNeighborSet()
		h  = NewNeighborDataHandle(2, 7, ns)
		e  = element(0, InteriorEntity)
	)
	assert.True(t, h.Contains(2, 0))
	assert.False(t, h.Contains(2, 1))
	assert.False(t, h.Contains(3, 0))
	assert.True(t, h.FixedSize(2, 0))
	assert.Equal(t, 1, h.Size(e))

	for _, peer := range []int{3, 1, 3, 9} {
		exchange[int](t, NewNeighborDataHandle(2, peer, NewNeighborSet()), h, e, e)
	}
	assert.Equal(t, []int{1, 3, 9}, ns.Ranks())
	assert.Equal(t, 3, ns.Len())
	assert.True(t, ns.Contains(9))
	assert.False(t, ns.Contains(7))
	assert.False(t, ns.Contains(-1))
	assert.Equal(t, "[1 3 9]", ns.String())
}
