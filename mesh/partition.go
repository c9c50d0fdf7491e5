package mesh

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/utils"
)

type PartitionStrategy uint8

const (
	BlockPartition PartitionStrategy = iota
	RoundRobinPartition
	MetisPartition
)

var partitionStrategyNames = map[PartitionStrategy]string{
	BlockPartition:      "block",
	RoundRobinPartition: "roundrobin",
	MetisPartition:      "metis",
}

func (ps PartitionStrategy) String() string {
	if name, ok := partitionStrategyNames[ps]; ok {
		return name
	}
	return fmt.Sprintf("PartitionStrategy(%d)", uint8(ps))
}

func ParsePartitionStrategy(label string) (PartitionStrategy, error) {
	for ps, name := range partitionStrategyNames {
		if strings.EqualFold(label, name) {
			return ps, nil
		}
	}
	return 0, fmt.Errorf("unknown partitioner %q", label)
}

// PartitionElements assigns each of K elements to one of nparts ranks. METIS
// needs the connectivity and lives in the metispart package.
func PartitionElements(K, nparts int, strategy PartitionStrategy) (EToP []int, err error) {
	if nparts < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, got %d", nparts)
	}
	switch strategy {
	case BlockPartition:
		EToP = utils.NewPartitionMap(nparts, K).EToP()
	case RoundRobinPartition:
		EToP = make([]int, K)
		for k := range EToP {
			EToP[k] = k % nparts
		}
	default:
		err = fmt.Errorf("partitioner %s is not available for a bare element count", strategy)
	}
	return
}

// PartitionStats holds statistics for a single rank
type PartitionStats struct {
	ID           int
	NumElements  int                      // Owned elements
	ElementTypes map[dd.PartitionType]int // Local elements by partition type
	FaceTypes    map[dd.PartitionType]int // Local faces by partition type
	NumNeighbors map[int]int              // neighbor rank -> shared faces
}

// Stats counts, per rank, the local entities by partition type and the faces
// shared with each neighbor rank
func (g *DDGrid) Stats() (partStats []PartitionStats) {
	partStats = make([]PartitionStats, g.NRanks)
	for p, rv := range g.Views {
		stats := &partStats[p]
		stats.ID = p
		stats.ElementTypes = make(map[dd.PartitionType]int)
		stats.FaceTypes = make(map[dd.PartitionType]int)
		stats.NumNeighbors = make(map[int]int)
		for _, e := range rv.Entities(0) {
			stats.ElementTypes[e.ptype]++
			if e.ptype == dd.InteriorEntity {
				stats.NumElements++
			}
		}
		for _, f := range rv.Entities(1) {
			stats.FaceTypes[f.ptype]++
			for _, rc := range rv.Remotes(f) {
				stats.NumNeighbors[rc.Rank]++
			}
		}
	}
	return
}

// CutFaces returns the faces separating elements owned by different ranks,
// keyed by the ordered rank pair
func (g *DDGrid) CutFaces() (interfaceFaces map[[2]int][]int) {
	interfaceFaces = make(map[[2]int][]int)
	for id, face := range g.Conn.Faces {
		if face.IsBoundary() {
			continue
		}
		p1, p2 := g.EToP[face.Elements[0]], g.EToP[face.Elements[1]]
		if p1 == p2 {
			continue
		}
		if p1 > p2 {
			p1, p2 = p2, p1
		}
		interfaceFaces[[2]int{p1, p2}] = append(interfaceFaces[[2]int{p1, p2}], id)
	}
	return
}

// LogStats reports partition quality through logger
func (g *DDGrid) LogStats(logger *zap.Logger) {
	var (
		partStats = g.Stats()
		minLoad   = math.MaxInt
		maxLoad   int
		avgLoad   float64
		cutFaces  int
	)
	for _, stats := range partStats {
		avgLoad += float64(stats.NumElements)
		minLoad = min(minLoad, stats.NumElements)
		maxLoad = max(maxLoad, stats.NumElements)
	}
	avgLoad /= float64(len(partStats))
	interfaces := g.CutFaces()
	for _, faces := range interfaces {
		cutFaces += len(faces)
	}
	imbalance := 0.
	if avgLoad > 0 {
		imbalance = float64(maxLoad)/avgLoad - 1
	}
	logger.Info("partition analysis",
		zap.Int("ranks", g.NRanks),
		zap.Int("cutFaces", cutFaces),
		zap.Float64("imbalancePct", imbalance*100),
		zap.Int("minLoad", minLoad),
		zap.Int("maxLoad", maxLoad),
		zap.Float64("avgLoad", avgLoad))
	for _, stats := range partStats {
		logger.Info("partition",
			zap.Int("id", stats.ID),
			zap.Int("elements", stats.NumElements),
			zap.Any("elementTypes", stats.ElementTypes),
			zap.Any("faceTypes", stats.FaceTypes),
			zap.Int("neighbors", len(stats.NumNeighbors)))
	}
	pairs := make([][2]int, 0, len(interfaces))
	for pair := range interfaces {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, pair := range pairs {
		logger.Info("interface",
			zap.Int("rank", pair[0]),
			zap.Int("peer", pair[1]),
			zap.Int("faces", len(interfaces[pair])))
	}
}

// NewCommunicationGraph builds the undirected rank graph from per-rank
// neighbor lists
func NewCommunicationGraph(nranks int, neighbors [][]int) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for r := 0; r < nranks; r++ {
		g.AddNode(simple.Node(r))
	}
	for a, nbrs := range neighbors {
		for _, b := range nbrs {
			if a < b && b < nranks {
				g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
			}
		}
	}
	return g
}

// CommunicationGraph connects every pair of ranks that share an entity
func (g *DDGrid) CommunicationGraph() *simple.UndirectedGraph {
	neighbors := make([][]int, g.NRanks)
	for p, rv := range g.Views {
		neighbors[p] = rv.Neighbors()
	}
	return NewCommunicationGraph(g.NRanks, neighbors)
}

// Connected reports whether the communication graph is a single component
func Connected(cg graph.Undirected) bool {
	return len(topo.ConnectedComponents(cg)) <= 1
}
