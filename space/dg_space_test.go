package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
)

func lineGrid(t *testing.T, opts ...mesh.GridOption) *mesh.DDGrid {
	t.Helper()
	c, err := mesh.NewStructured1D(6)
	require.NoError(t, err)
	g, err := mesh.NewDDGrid(c, []int{0, 0, 0, 1, 1, 1}, 2, opts...)
	require.NoError(t, err)
	return g
}

func TestDGSpaceIndices(t *testing.T) {
	g := lineGrid(t, mesh.WithOverlap(1))
	s0, err := NewDGSpace(g.View(0), 1)
	require.NoError(t, err)
	s1, err := NewDGSpace(g.View(1), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, s0.Dim())
	assert.Equal(t, 12, s0.Size())
	assert.Equal(t, 8, s0.LocalDOFs())
	assert.Equal(t, 2, s0.MaxLocalSize(0))
	assert.Equal(t, 0, s0.MaxLocalSize(1))

	e5, ok := g.View(1).Lookup(0, 5)
	require.True(t, ok)
	assert.Equal(t, 2, s1.LocalSize(e5))
	assert.Equal(t, []int{10, 11}, s1.GlobalIndices(e5, nil))

	// Both copies of an overlap element agree on its DOFs
	e3r0, _ := g.View(0).Lookup(0, 3)
	e3r1, _ := g.View(1).Lookup(0, 3)
	assert.Equal(t, s1.GlobalIndices(e3r1, nil), s0.GlobalIndices(e3r0, make([]int, 5)))

	face, _ := g.View(0).Lookup(1, 3)
	assert.Equal(t, 0, s0.LocalSize(face))
	assert.Empty(t, s0.GlobalIndices(face, []int{1, 2}))

	var _ dd.Space = s0
}

func TestDGSpaceOrders(t *testing.T) {
	c, err := mesh.NewStructured2D(2, 1)
	require.NoError(t, err)
	g, err := mesh.NewDDGrid(c, []int{0, 1}, 2, mesh.WithGhostLayer())
	require.NoError(t, err)

	s, err := NewDGSpaceWithOrders(g.View(0), []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 4+9, s.Size())
	assert.Equal(t, 9, s.MaxLocalSize(0))
	assert.Equal(t, 2, s.Order(1))
	e1, _ := g.View(0).Lookup(0, 1)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11, 12}, s.GlobalIndices(e1, nil))

	// Without the ghost element rank 0 only sees order 1
	g, err = mesh.NewDDGrid(c, []int{0, 1}, 2)
	require.NoError(t, err)
	s, err = NewDGSpaceWithOrders(g.View(0), []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, s.MaxLocalSize(0))

	_, err = NewDGSpaceWithOrders(g.View(0), []int{1})
	assert.Error(t, err)
	_, err = NewDGSpaceWithOrders(g.View(0), []int{1, -1})
	assert.Error(t, err)
}

func TestRestriction(t *testing.T) {
	g := lineGrid(t, mesh.WithOverlap(1))
	s, err := NewDGSpace(g.View(1), 1)
	require.NoError(t, err)

	R := s.Restriction()
	require.NotNil(t, R)
	r, c := R.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 12, c)
	assert.Equal(t, 8, R.NNZ())
	assert.Equal(t, 1., R.At(0, 4))

	global := mat.NewVecDense(12, nil)
	for i := 0; i < 12; i++ {
		global.SetVec(i, float64(i))
	}
	local, err := s.Restrict(global)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6, 7, 8, 9, 10, 11}, local.RawVector().Data)

	_, err = s.Restrict(mat.NewVecDense(3, nil))
	assert.Error(t, err)
}
