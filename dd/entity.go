// Package dd implements the domain decomposition DOF communication handles:
// a local DOF view bound to one entity at a time, communication descriptors,
// pluggable gather/scatter merge policies and the data handles an entity
// communication runtime drives during one exchange round.
package dd

import "strings"

// PartitionType classifies an entity with respect to the local partition
type PartitionType uint8

const (
	InteriorEntity PartitionType = iota
	BorderEntity
	OverlapEntity
	GhostEntity
)

func (pt PartitionType) String() string {
	switch pt {
	case InteriorEntity:
		return "interior"
	case BorderEntity:
		return "border"
	case OverlapEntity:
		return "overlap"
	case GhostEntity:
		return "ghost"
	default:
		return "unknown"
	}
}

// PartitionSet is a bit set of partition types
type PartitionSet uint8

func NewPartitionSet(types ...PartitionType) (ps PartitionSet) {
	for _, pt := range types {
		ps |= 1 << pt
	}
	return
}

var (
	AllPartitions            = NewPartitionSet(InteriorEntity, BorderEntity, OverlapEntity, GhostEntity)
	InteriorBorderPartitions = NewPartitionSet(InteriorEntity, BorderEntity)
)

func (ps PartitionSet) Contains(pt PartitionType) bool {
	return ps&(1<<pt) != 0
}

func (ps PartitionSet) String() string {
	var names []string
	for pt := InteriorEntity; pt <= GhostEntity; pt++ {
		if ps.Contains(pt) {
			names = append(names, pt.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Entity is a mesh entity handle seen by the handles. Index is unique among
// entities of the same codimension and agrees across ranks.
type Entity interface {
	Index() int
	Codim() int
	PartitionType() PartitionType
}

// InteriorOrBorder reports whether the local rank may claim ownership of e
func InteriorOrBorder(e Entity) bool {
	return InteriorBorderPartitions.Contains(e.PartitionType())
}

// Space resolves the degrees of freedom attached to entities of the local
// partition.
type Space interface {
	// Dim is the grid dimension
	Dim() int
	// LocalSize is the number of DOFs attached to e
	LocalSize(e Entity) int
	// GlobalIndices appends the global DOF indices of e to dst[:0]
	GlobalIndices(e Entity, dst []int) []int
	// MaxLocalSize is the largest LocalSize over the local entities of codim
	MaxLocalSize(codim int) int
}
