// Package metispart partitions the element graph of a mesh with METIS
package metispart

import (
	"fmt"

	metis "github.com/notargets/go-metis"
	"go.uber.org/zap"

	"github.com/notargets/godd/mesh"
)

// Config holds configuration for METIS partitioning
type Config struct {
	NumPartitions   int32
	ImbalanceFactor float32 // e.g., 1.05 for 5% imbalance
	Objective       string  // "cut" or "vol"
	// ElementWeight is the compute cost of element k, nil for uniform weights
	ElementWeight func(k int) int32
	// FaceWeight is the exchange cost across a face, nil for uniform weights
	FaceWeight func(face int) int32
}

func DefaultConfig(nparts int32) *Config {
	return &Config{
		NumPartitions:   nparts,
		ImbalanceFactor: 1.05,
		Objective:       "vol", // minimize communication volume
	}
}

type Partitioner struct {
	conn   *mesh.Connectivity
	config *Config
	logger *zap.Logger
}

func NewPartitioner(conn *mesh.Connectivity, config *Config, logger *zap.Logger) *Partitioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Partitioner{conn: conn, config: config, logger: logger}
}

// Partition returns the owning rank of every element
func (mp *Partitioner) Partition() (EToP []int, err error) {
	var (
		nparts = mp.config.NumPartitions
		K      = mp.conn.K
	)
	if nparts < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, got %d", nparts)
	}
	EToP = make([]int, K)
	// METIS rejects trivial problems
	if nparts == 1 || K == 0 {
		return
	}
	if int(nparts) > K {
		return nil, fmt.Errorf("cannot split %d elements into %d partitions", K, nparts)
	}
	mp.logger.Info("partitioning mesh",
		zap.Int("elements", K), zap.Int32("parts", nparts))

	xadj, adjncy, vwgt, adjwgt := mp.BuildGraph()

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if mp.config.Objective == "cut" {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	}
	ubvec := []float32{mp.config.ImbalanceFactor}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgt, adjwgt,
		nparts, nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	for k := 0; k < K; k++ {
		EToP[k] = int(part[k])
	}
	mp.logger.Info("partitioning done", zap.Int32("objective", objval))
	return
}

// BuildGraph converts the element connectivity to METIS CSR form
func (mp *Partitioner) BuildGraph() (xadj, adjncy, vwgt, adjwgt []int32) {
	K := mp.conn.K
	if mp.config.ElementWeight != nil {
		vwgt = make([]int32, K)
		for k := 0; k < K; k++ {
			vwgt[k] = mp.config.ElementWeight(k)
		}
	}
	xadj = make([]int32, K+1)
	for k := 0; k < K; k++ {
		for f, nbr := range mp.conn.EToE[k] {
			if nbr < 0 || nbr == k {
				continue
			}
			adjncy = append(adjncy, int32(nbr))
			if mp.config.FaceWeight != nil {
				adjwgt = append(adjwgt, mp.config.FaceWeight(mp.conn.EToF[k][f]))
			}
		}
		xadj[k+1] = int32(len(adjncy))
	}
	return
}
