package dd

import (
	"cmp"
	"unsafe"
)

// GatherScatter is the merge policy invoked once per (entity, peer) pair on
// each side of an exchange. Gather serializes the bound view, Scatter merges
// n incoming items into it. The returned flag asks the data handle to commit
// the view back to the vector.
type GatherScatter[T any] interface {
	Gather(buf WriteBuffer[T], e Entity, view *LocalView[T]) (changed bool, err error)
	Scatter(buf ReadBuffer[T], n int, e Entity, view *LocalView[T]) (changed bool, err error)
}

// ValueGatherScatter moves a single DOF value
type ValueGatherScatter[T any] interface {
	GatherValue(buf WriteBuffer[T], v T)
	ScatterValue(buf ReadBuffer[T], v *T) error
}

// DOFGatherScatter sends every DOF of an entity through Op. It requires the
// DOF layout to be identical on sender and receiver for entities in
// Partitions; data arriving for entities outside Partitions is drained and
// dropped.
type DOFGatherScatter[T any] struct {
	Op         ValueGatherScatter[T]
	Partitions PartitionSet
}

func NewDOFGatherScatter[T any](op ValueGatherScatter[T]) *DOFGatherScatter[T] {
	return &DOFGatherScatter[T]{Op: op, Partitions: AllPartitions}
}

func (gs *DOFGatherScatter[T]) Gather(buf WriteBuffer[T], _ Entity, view *LocalView[T]) (bool, error) {
	for i := 0; i < view.Size(); i++ {
		gs.Op.GatherValue(buf, view.At(i))
	}
	return false, nil
}

func (gs *DOFGatherScatter[T]) Scatter(buf ReadBuffer[T], n int, e Entity, view *LocalView[T]) (bool, error) {
	if !gs.Partitions.Contains(e.PartitionType()) {
		for i := 0; i < n; i++ {
			if _, err := buf.Read(); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if view.Size() != n {
		return false, &ErrSizeMismatch{Partition: e.PartitionType(), Have: view.Size(), Received: n}
	}
	for i := 0; i < view.Size(); i++ {
		if err := gs.Op.ScatterValue(buf, view.Ref(i)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// MinValue keeps the smallest of the local and received value
type MinValue[T cmp.Ordered] struct{}

func (MinValue[T]) GatherValue(buf WriteBuffer[T], v T) { buf.Write(v) }

func (MinValue[T]) ScatterValue(buf ReadBuffer[T], v *T) error {
	x, err := buf.Read()
	if err != nil {
		return err
	}
	*v = min(*v, x)
	return nil
}

// MaxValue keeps the largest of the local and received value
type MaxValue[T cmp.Ordered] struct{}

func (MaxValue[T]) GatherValue(buf WriteBuffer[T], v T) { buf.Write(v) }

func (MaxValue[T]) ScatterValue(buf ReadBuffer[T], v *T) error {
	x, err := buf.Read()
	if err != nil {
		return err
	}
	*v = max(*v, x)
	return nil
}

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SumValue adds the received value, assembling contributions of all sharers
type SumValue[T Number] struct{}

func (SumValue[T]) GatherValue(buf WriteBuffer[T], v T) { buf.Write(v) }

func (SumValue[T]) ScatterValue(buf ReadBuffer[T], v *T) error {
	x, err := buf.Read()
	if err != nil {
		return err
	}
	*v += x
	return nil
}

// GhostGatherScatter marks the DOFs of every entity that is neither interior
// nor border. Communicate on the interior/border to all interface.
type GhostGatherScatter struct{}

func (GhostGatherScatter) Gather(buf WriteBuffer[bool], e Entity, _ *LocalView[bool]) (bool, error) {
	// The receiver throws this away, it only keeps the stream populated
	buf.Write(!InteriorOrBorder(e))
	return false, nil
}

func (GhostGatherScatter) Scatter(buf ReadBuffer[bool], _ int, e Entity, view *LocalView[bool]) (bool, error) {
	// Recomputed on the receiving side, the interface is asymmetric
	ghost := !InteriorOrBorder(e)
	if _, err := buf.Read(); err != nil {
		return false, err
	}
	for i := 0; i < view.Size(); i++ {
		view.Set(i, ghost)
	}
	return true, nil
}

// RankIndex is the set of integer types usable as process ranks
type RankIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// UnknownRank is the largest value of T, used for DOFs without an owner yet
func UnknownRank[T RankIndex]() T {
	var zero T
	if ^zero > zero {
		return ^zero
	}
	bits := unsafe.Sizeof(zero) * 8
	return T(uint64(1)<<(bits-1) - 1)
}

// DisjointPartitioningGatherScatter assigns every DOF to the lowest rank on
// which its entity is interior or border. Communicate on the interior/border
// to all interface, with the vector initialized to the local rank.
type DisjointPartitioningGatherScatter[T RankIndex] struct {
	Rank T
}

func (gs DisjointPartitioningGatherScatter[T]) Gather(buf WriteBuffer[T], _ Entity, _ *LocalView[T]) (bool, error) {
	// Only interior and border entities are gathered from, so the claim needs
	// no further checks.
	buf.Write(gs.Rank)
	return false, nil
}

func (gs DisjointPartitioningGatherScatter[T]) Scatter(buf ReadBuffer[T], _ int, e Entity, view *LocalView[T]) (bool, error) {
	var (
		unknown   = UnknownRank[T]()
		claimable = InteriorOrBorder(e)
	)
	received, err := buf.Read()
	if err != nil {
		return false, err
	}
	for i := 0; i < view.Size(); i++ {
		current := view.At(i)
		// Give up our own claim on overlap and ghost entities, but keep
		// anything another rank already sent.
		if !claimable && current == gs.Rank {
			current = unknown
		}
		view.Set(i, min(current, received))
	}
	return true, nil
}

// SharedDOFGatherScatter marks every DOF that also exists on another rank.
// Communicate on the all to all interface with the vector initialized false.
type SharedDOFGatherScatter struct{}

func (SharedDOFGatherScatter) Gather(buf WriteBuffer[bool], _ Entity, view *LocalView[bool]) (bool, error) {
	buf.Write(view.Size() > 0)
	return false, nil
}

func (SharedDOFGatherScatter) Scatter(buf ReadBuffer[bool], _ int, _ Entity, view *LocalView[bool]) (bool, error) {
	remoteHasDOFs, err := buf.Read()
	if err != nil {
		return false, err
	}
	for i := 0; i < view.Size(); i++ {
		view.Set(i, view.At(i) || remoteHasDOFs)
	}
	return true, nil
}
