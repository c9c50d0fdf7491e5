package dd

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// NeighborSet is a deduplicated set of peer ranks
type NeighborSet struct {
	bm *roaring.Bitmap
}

func NewNeighborSet() *NeighborSet {
	return &NeighborSet{bm: roaring.New()}
}

func (ns *NeighborSet) Insert(rank int) {
	ns.bm.Add(uint32(rank))
}

func (ns *NeighborSet) Contains(rank int) bool {
	return rank >= 0 && ns.bm.Contains(uint32(rank))
}

func (ns *NeighborSet) Len() int {
	return int(ns.bm.GetCardinality())
}

// Ranks returns the members in ascending order
func (ns *NeighborSet) Ranks() (ranks []int) {
	ranks = make([]int, 0, ns.Len())
	it := ns.bm.Iterator()
	for it.HasNext() {
		ranks = append(ranks, int(it.Next()))
	}
	return
}

func (ns *NeighborSet) String() string {
	return fmt.Sprint(ns.Ranks())
}

// NeighborDataHandle collects the ranks of all processes sharing elements
// with the local one. It deliberately bypasses the space machinery: one rank
// per element, nothing bound, nothing committed. Communicate on the all to
// all interface.
type NeighborDataHandle struct {
	dim       int
	rank      int
	neighbors *NeighborSet
}

var _ DataHandle[int] = (*NeighborDataHandle)(nil)

func NewNeighborDataHandle(dim, rank int, neighbors *NeighborSet) *NeighborDataHandle {
	return &NeighborDataHandle{
		dim:       dim,
		rank:      rank,
		neighbors: neighbors,
	}
}

func (h *NeighborDataHandle) Contains(dim, codim int) bool {
	return dim == h.dim && codim == 0
}

// FixedSize holds, a single value is always sent
func (h *NeighborDataHandle) FixedSize(_, _ int) bool { return true }

func (h *NeighborDataHandle) Size(_ Entity) int { return 1 }

func (h *NeighborDataHandle) Gather(buf WriteBuffer[int], _ Entity) error {
	buf.Write(h.rank)
	return nil
}

func (h *NeighborDataHandle) Scatter(buf ReadBuffer[int], _ Entity, _ int) error {
	rank, err := buf.Read()
	if err != nil {
		return err
	}
	h.neighbors.Insert(rank)
	return nil
}
