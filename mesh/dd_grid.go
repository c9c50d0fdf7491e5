package mesh

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/notargets/godd/dd"
)

// Entity is an element (codim 0) or face (codim 1) as seen by one rank
type Entity struct {
	index int
	codim int
	ptype dd.PartitionType
}

func (e Entity) Index() int                      { return e.index }
func (e Entity) Codim() int                      { return e.codim }
func (e Entity) PartitionType() dd.PartitionType { return e.ptype }

func (e Entity) String() string {
	return fmt.Sprintf("codim%d[%d](%s)", e.codim, e.index, e.ptype)
}

// RemoteCopy is another rank holding the same entity
type RemoteCopy struct {
	Rank int
	Type dd.PartitionType
}

const numCodims = 2

// RankView is the part of the decomposed grid held by one rank
type RankView struct {
	rank, size int
	conn       *Connectivity
	entities   [numCodims][]Entity
	lookup     [numCodims]map[int]int
	remotes    [numCodims]map[int][]RemoteCopy
	neighbors  []int
}

func (rv *RankView) Rank() int { return rv.rank }

func (rv *RankView) Size() int { return rv.size }

func (rv *RankView) Dim() int { return rv.conn.Dim }

func (rv *RankView) Connectivity() *Connectivity { return rv.conn }

// Entities returns the local entities of codim in ascending index order
func (rv *RankView) Entities(codim int) []Entity {
	if codim < 0 || codim >= numCodims {
		return nil
	}
	return rv.entities[codim]
}

func (rv *RankView) Lookup(codim, index int) (e Entity, ok bool) {
	if codim < 0 || codim >= numCodims {
		return
	}
	var pos int
	if pos, ok = rv.lookup[codim][index]; ok {
		e = rv.entities[codim][pos]
	}
	return
}

// Remotes lists the other ranks holding e, in ascending rank order
func (rv *RankView) Remotes(e dd.Entity) []RemoteCopy {
	if e.Codim() < 0 || e.Codim() >= numCodims {
		return nil
	}
	return rv.remotes[e.Codim()][e.Index()]
}

// SharedWith returns the ranks of the remote copies of e
func (rv *RankView) SharedWith(e dd.Entity) (ranks []int) {
	for _, rc := range rv.Remotes(e) {
		ranks = append(ranks, rc.Rank)
	}
	return
}

// Neighbors lists the ranks sharing at least one entity with this rank
func (rv *RankView) Neighbors() []int { return rv.neighbors }

// Elements returns the global IDs of the local elements
func (rv *RankView) Elements() (ks []int) {
	ks = make([]int, len(rv.entities[0]))
	for i, e := range rv.entities[0] {
		ks[i] = e.index
	}
	return
}

type gridConfig struct {
	overlap    int
	ghostLayer bool
	logger     *zap.Logger
}

type GridOption func(*gridConfig)

// WithOverlap adds n layers of overlap elements around each partition
func WithOverlap(n int) GridOption {
	return func(c *gridConfig) { c.overlap = n }
}

// WithGhostLayer adds one layer of ghost elements when there is no overlap
func WithGhostLayer() GridOption {
	return func(c *gridConfig) { c.ghostLayer = true }
}

func WithLogger(logger *zap.Logger) GridOption {
	return func(c *gridConfig) { c.logger = logger }
}

// DDGrid is a mesh decomposed over NRanks ranks
type DDGrid struct {
	Conn       *Connectivity
	EToP       []int // Owning rank of each element
	NRanks     int
	Overlap    int
	GhostLayer bool
	Views      []*RankView
}

// NewDDGrid classifies every element and face on every rank. Rank p owns the
// elements with EToP == p, those are interior. Layers grown from there over
// EToE are overlap, or ghost for a ghost layer without overlap. A face is
// interior when all its elements are owned, border when it separates an owned
// element from one owned elsewhere, otherwise it takes the type of its
// local elements.
func NewDDGrid(conn *Connectivity, EToP []int, nranks int, opts ...GridOption) (g *DDGrid, err error) {
	cfg := &gridConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if nranks < 1 {
		return nil, fmt.Errorf("number of ranks must be positive, got %d", nranks)
	}
	if cfg.overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", cfg.overlap)
	}
	if len(EToP) != conn.K {
		return nil, fmt.Errorf("EToP has %d entries for %d elements", len(EToP), conn.K)
	}
	for k, p := range EToP {
		if p < 0 || p >= nranks {
			return nil, fmt.Errorf("element %d assigned to rank %d, out of range [0,%d)", k, p, nranks)
		}
	}
	g = &DDGrid{
		Conn:       conn,
		EToP:       EToP,
		NRanks:     nranks,
		Overlap:    cfg.overlap,
		GhostLayer: cfg.ghostLayer,
		Views:      make([]*RankView, nranks),
	}
	for p := 0; p < nranks; p++ {
		g.Views[p] = g.buildView(p)
	}
	g.connectViews()
	for _, rv := range g.Views {
		cfg.logger.Debug("rank view built",
			zap.Int("rank", rv.rank),
			zap.Int("elements", len(rv.entities[0])),
			zap.Int("faces", len(rv.entities[1])),
			zap.Ints("neighbors", rv.neighbors))
	}
	return
}

func (g *DDGrid) View(rank int) *RankView { return g.Views[rank] }

func (g *DDGrid) buildView(p int) (rv *RankView) {
	var (
		conn     = g.Conn
		elemType = make(map[int]dd.PartitionType)
		frontier []int
		layers   = g.Overlap
		layerPT  = dd.OverlapEntity
	)
	for k, owner := range g.EToP {
		if owner == p {
			elemType[k] = dd.InteriorEntity
			frontier = append(frontier, k)
		}
	}
	if layers == 0 && g.GhostLayer {
		layers, layerPT = 1, dd.GhostEntity
	}
	for l := 0; l < layers; l++ {
		var next []int
		for _, k := range frontier {
			for _, nbr := range conn.Neighbors(k) {
				if _, present := elemType[nbr]; !present {
					elemType[nbr] = layerPT
					next = append(next, nbr)
				}
			}
		}
		frontier = next
	}

	faceType := make(map[int]dd.PartitionType)
	for k := range elemType {
		for _, f := range conn.EToF[k] {
			if _, done := faceType[f]; !done {
				faceType[f] = g.classifyFace(p, conn.Faces[f], elemType)
			}
		}
	}

	rv = &RankView{
		rank: p,
		size: g.NRanks,
		conn: conn,
	}
	for codim, types := range []map[int]dd.PartitionType{elemType, faceType} {
		ids := make([]int, 0, len(types))
		for id := range types {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		rv.entities[codim] = make([]Entity, len(ids))
		rv.lookup[codim] = make(map[int]int, len(ids))
		rv.remotes[codim] = make(map[int][]RemoteCopy)
		for i, id := range ids {
			rv.entities[codim][i] = Entity{index: id, codim: codim, ptype: types[id]}
			rv.lookup[codim][id] = i
		}
	}
	return
}

func (g *DDGrid) classifyFace(p int, face Face, elemType map[int]dd.PartitionType) dd.PartitionType {
	var (
		owned, foreign int
		overlap        bool
	)
	for _, k := range face.Elements {
		if k < 0 {
			continue
		}
		if g.EToP[k] == p {
			owned++
			continue
		}
		foreign++
		if elemType[k] == dd.OverlapEntity {
			overlap = true
		}
	}
	switch {
	case owned > 0 && foreign == 0:
		return dd.InteriorEntity
	case owned > 0:
		return dd.BorderEntity
	case overlap:
		return dd.OverlapEntity
	default:
		return dd.GhostEntity
	}
}

// connectViews records, for every entity, which other ranks hold it
func (g *DDGrid) connectViews() {
	for codim := 0; codim < numCodims; codim++ {
		holders := make(map[int][]RemoteCopy)
		for _, rv := range g.Views {
			for _, e := range rv.entities[codim] {
				holders[e.index] = append(holders[e.index], RemoteCopy{Rank: rv.rank, Type: e.ptype})
			}
		}
		for _, rv := range g.Views {
			for _, e := range rv.entities[codim] {
				for _, rc := range holders[e.index] {
					if rc.Rank != rv.rank {
						rv.remotes[codim][e.index] = append(rv.remotes[codim][e.index], rc)
					}
				}
			}
		}
	}
	for _, rv := range g.Views {
		seen := make(map[int]bool)
		for codim := 0; codim < numCodims; codim++ {
			for _, copies := range rv.remotes[codim] {
				for _, rc := range copies {
					seen[rc.Rank] = true
				}
			}
		}
		rv.neighbors = make([]int, 0, len(seen))
		for r := range seen {
			rv.neighbors = append(rv.neighbors, r)
		}
		sort.Ints(rv.neighbors)
	}
}
