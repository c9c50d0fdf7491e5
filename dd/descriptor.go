package dd

import "fmt"

// Descriptor answers how many items an entity contributes to an exchange and
// which codimensions take part at all.
type Descriptor interface {
	Contains(dim, codim int) bool
	// FixedSize is always true, there are no adaptive spaces
	FixedSize(dim, codim int) bool
	Size(s Space, e Entity) int
}

// associatesDataWith holds for elements only, whatever the space
func associatesDataWith(codim int) bool {
	return codim == 0
}

// DOFDescriptor sends one item per DOF of an element
type DOFDescriptor struct{}

func (DOFDescriptor) Contains(_, codim int) bool { return associatesDataWith(codim) }

func (DOFDescriptor) FixedSize(_, _ int) bool { return true }

func (DOFDescriptor) Size(s Space, e Entity) int {
	if !associatesDataWith(e.Codim()) {
		return 0
	}
	return s.LocalSize(e)
}

// EntityDescriptor sends a fixed number of items per element, whatever the
// number of DOFs attached to it. Count is an upper bound on what a gather
// writes for one entity.
type EntityDescriptor struct {
	count int
}

func NewEntityDescriptor(count int) (EntityDescriptor, error) {
	if count < 1 {
		return EntityDescriptor{}, fmt.Errorf("entity descriptor count must be positive, got %d", count)
	}
	return EntityDescriptor{count: count}, nil
}

// EntityDescriptorFor sizes an EntityDescriptor from the largest element
// payload of the space, at least one item.
func EntityDescriptorFor(s Space) EntityDescriptor {
	return EntityDescriptor{count: max(1, s.MaxLocalSize(0))}
}

func (ed EntityDescriptor) Count() int { return ed.count }

func (EntityDescriptor) Contains(_, codim int) bool { return associatesDataWith(codim) }

func (EntityDescriptor) FixedSize(_, _ int) bool { return true }

func (ed EntityDescriptor) Size(_ Space, e Entity) int {
	if !associatesDataWith(e.Codim()) {
		return 0
	}
	return ed.count
}
