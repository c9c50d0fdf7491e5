// Package mesh holds element connectivity and the domain decomposed grid
// built on it: one view per rank with every element and face classified as
// interior, border, overlap or ghost.
package mesh

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Face joins two elements, Elements[1] is -1 on the physical boundary
type Face struct {
	Elements [2]int
}

func (f Face) IsBoundary() bool { return f.Elements[1] < 0 }

// Connectivity is the element to element graph of a mesh
type Connectivity struct {
	Dim   int
	K     int
	EToE  [][]int // Neighbor across each face, -1 (or self) on the boundary
	EToF  [][]int // Face ID of each element face
	Faces []Face
}

// NewConnectivity validates EToE and numbers the faces
func NewConnectivity(dim int, EToE [][]int) (c *Connectivity, err error) {
	if dim < 1 {
		err = fmt.Errorf("mesh dimension must be positive, got %d", dim)
		return
	}
	c = &Connectivity{
		Dim:  dim,
		K:    len(EToE),
		EToE: EToE,
	}
	if err = c.validate(); err != nil {
		return nil, err
	}
	c.buildFaces()
	return
}

func (c *Connectivity) validate() error {
	for k, nbrs := range c.EToE {
		for f, nbr := range nbrs {
			if nbr < 0 || nbr == k {
				continue
			}
			if nbr >= c.K {
				return fmt.Errorf("element %d face %d: neighbor %d out of range [0,%d)", k, f, nbr, c.K)
			}
			if count(c.EToE[nbr], k) != count(nbrs, nbr) {
				return fmt.Errorf("element %d face %d: connection to %d is not symmetric", k, f, nbr)
			}
		}
	}
	return nil
}

func count(list []int, v int) (n int) {
	for _, x := range list {
		if x == v {
			n++
		}
	}
	return
}

func (c *Connectivity) buildFaces() {
	c.EToF = make([][]int, c.K)
	for k := range c.EToE {
		c.EToF[k] = make([]int, len(c.EToE[k]))
		for f := range c.EToF[k] {
			c.EToF[k][f] = -1
		}
	}
	c.Faces = c.Faces[:0]
	for k, nbrs := range c.EToE {
		for f, nbr := range nbrs {
			if c.EToF[k][f] >= 0 {
				continue
			}
			id := len(c.Faces)
			c.EToF[k][f] = id
			if nbr < 0 || nbr == k {
				c.Faces = append(c.Faces, Face{Elements: [2]int{k, -1}})
				continue
			}
			c.Faces = append(c.Faces, Face{Elements: [2]int{k, nbr}})
			// Match the first unnumbered face of the neighbor pointing back
			for g, back := range c.EToE[nbr] {
				if back == k && c.EToF[nbr][g] < 0 {
					c.EToF[nbr][g] = id
					break
				}
			}
		}
	}
}

// Neighbors returns the elements sharing a face with k
func (c *Connectivity) Neighbors(k int) (nbrs []int) {
	for _, nbr := range c.EToE[k] {
		if nbr >= 0 && nbr != k {
			nbrs = append(nbrs, nbr)
		}
	}
	return
}

// NewStructured1D is a line of K elements
func NewStructured1D(K int) (*Connectivity, error) {
	EToE := make([][]int, K)
	for k := 0; k < K; k++ {
		EToE[k] = []int{k - 1, k + 1}
		if k == K-1 {
			EToE[k][1] = -1
		}
	}
	return NewConnectivity(1, EToE)
}

// NewStructured2D is an nx by ny grid of quads numbered row by row, faces
// ordered south, east, north, west
func NewStructured2D(nx, ny int) (*Connectivity, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("structured mesh needs positive dimensions, got %dx%d", nx, ny)
	}
	var (
		id = func(i, j int) int {
			if i < 0 || i >= nx || j < 0 || j >= ny {
				return -1
			}
			return j*nx + i
		}
		EToE = make([][]int, nx*ny)
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			EToE[id(i, j)] = []int{id(i, j-1), id(i+1, j), id(i, j+1), id(i-1, j)}
		}
	}
	return NewConnectivity(2, EToE)
}

type connectivityFile struct {
	Dim  int     `json:"Dim"`
	EToE [][]int `json:"EToE"`
}

// ReadConnectivity parses a YAML mesh description like:
//
//	Dim: 1
//	EToE:
//	  - [-1, 1]
//	  - [0, -1]
func ReadConnectivity(data []byte) (*Connectivity, error) {
	var cf connectivityFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing mesh connectivity: %w", err)
	}
	return NewConnectivity(cf.Dim, cf.EToE)
}
