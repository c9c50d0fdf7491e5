// Package space maps the degrees of freedom of a discontinuous Galerkin
// space onto the elements of one rank.
package space

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
)

// DGSpace attaches Np = (N+1)^Dim DOFs to every element of a rank view.
// Global DOF numbers are contiguous per global element ID, so every rank holding
// an element agrees on its DOFs.
type DGSpace struct {
	view     *mesh.RankView
	order    []int // Polynomial order of each global element
	offset   []int // First global DOF of each global element, len K+1
	local    []int // Local DOF offset of each local element, len nLocal+1
	maxLocal int
}

// NewDGSpace uses order N on every element
func NewDGSpace(view *mesh.RankView, N int) (*DGSpace, error) {
	order := make([]int, view.Connectivity().K)
	for k := range order {
		order[k] = N
	}
	return NewDGSpaceWithOrders(view, order)
}

// NewDGSpaceWithOrders takes one polynomial order per global element
func NewDGSpaceWithOrders(view *mesh.RankView, order []int) (s *DGSpace, err error) {
	K := view.Connectivity().K
	if len(order) != K {
		return nil, fmt.Errorf("have %d polynomial orders for %d elements", len(order), K)
	}
	s = &DGSpace{
		view:   view,
		order:  order,
		offset: make([]int, K+1),
	}
	for k, N := range order {
		if N < 0 {
			return nil, fmt.Errorf("element %d: negative polynomial order %d", k, N)
		}
		s.offset[k+1] = s.offset[k] + s.np(N)
	}
	elements := view.Entities(0)
	s.local = make([]int, len(elements)+1)
	for i, e := range elements {
		np := s.np(order[e.Index()])
		s.local[i+1] = s.local[i] + np
		s.maxLocal = max(s.maxLocal, np)
	}
	return
}

func (s *DGSpace) np(N int) (np int) {
	np = 1
	for d := 0; d < s.view.Dim(); d++ {
		np *= N + 1
	}
	return
}

func (s *DGSpace) Dim() int { return s.view.Dim() }

func (s *DGSpace) View() *mesh.RankView { return s.view }

// Order returns the polynomial order of global element k
func (s *DGSpace) Order(k int) int { return s.order[k] }

func (s *DGSpace) LocalSize(e dd.Entity) int {
	if e.Codim() != 0 {
		return 0
	}
	return s.offset[e.Index()+1] - s.offset[e.Index()]
}

func (s *DGSpace) GlobalIndices(e dd.Entity, dst []int) []int {
	dst = dst[:0]
	if e.Codim() != 0 {
		return dst
	}
	for i := s.offset[e.Index()]; i < s.offset[e.Index()+1]; i++ {
		dst = append(dst, i)
	}
	return dst
}

// MaxLocalSize is taken over the elements on this rank
func (s *DGSpace) MaxLocalSize(codim int) int {
	if codim != 0 {
		return 0
	}
	return s.maxLocal
}

// Size is the number of global DOFs
func (s *DGSpace) Size() int { return s.offset[len(s.offset)-1] }

// LocalDOFs is the number of DOFs on the elements of this rank
func (s *DGSpace) LocalDOFs() int { return s.local[len(s.local)-1] }

// Restriction maps global DOFs onto the DOFs of the local elements, in the
// order of the rank view's elements. It is nil when the rank holds no DOFs.
func (s *DGSpace) Restriction() *sparse.CSR {
	if s.LocalDOFs() == 0 || s.Size() == 0 {
		return nil
	}
	var (
		R    = sparse.NewDOK(s.LocalDOFs(), s.Size())
		gidx []int
	)
	for i, e := range s.view.Entities(0) {
		gidx = s.GlobalIndices(e, gidx)
		for j, g := range gidx {
			R.Set(s.local[i]+j, g, 1)
		}
	}
	return R.ToCSR()
}

// Restrict returns the local part of a global vector
func (s *DGSpace) Restrict(global *mat.VecDense) (local *mat.VecDense, err error) {
	if global.Len() != s.Size() {
		return nil, fmt.Errorf("global vector has length %d, space has %d DOFs", global.Len(), s.Size())
	}
	R := s.Restriction()
	if R == nil {
		return
	}
	local = mat.NewVecDense(s.LocalDOFs(), nil)
	local.MulVec(R, global)
	return
}
