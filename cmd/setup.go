package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/godd/InputParameters"
	"github.com/notargets/godd/mesh"
	"github.com/notargets/godd/mesh/metispart"
	"github.com/notargets/godd/space"
)

// Flags shared by every subcommand, all of them can also come from the config
// file or GODD_* environment variables
func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("inputFile", "I", "", "YAML input parameters file")
	cmd.Flags().Int("ranks", 2, "number of ranks")
	cmd.Flags().IntP("k", "k", 8, "number of elements of a line mesh")
	cmd.Flags().Int("nx", 0, "quad mesh elements in x, selects a quad mesh")
	cmd.Flags().Int("ny", 0, "quad mesh elements in y")
	cmd.Flags().String("mesh", "", "YAML connectivity file, selects a file mesh")
	cmd.Flags().String("partitioner", "block", "block, roundrobin or metis")
	cmd.Flags().Int("overlap", 0, "layers of overlap elements")
	cmd.Flags().Bool("ghost", false, "add a ghost layer when there is no overlap")
	cmd.Flags().IntP("n", "n", 1, "polynomial degree")
}

// loadParameters starts from the input file, when given, and applies every
// flag, config file or environment setting on top of it
func loadParameters(cmd *cobra.Command) (ip *InputParameters.DDParameters, err error) {
	v := viper.New()
	v.SetEnvPrefix("GODD")
	v.AutomaticEnv()
	if err = v.MergeConfigMap(viper.AllSettings()); err != nil {
		return
	}
	if err = v.BindPFlags(cmd.Flags()); err != nil {
		return
	}
	ip = InputParameters.NewDDParameters()
	if fileName := v.GetString("inputFile"); fileName != "" {
		if err = ip.ReadFile(fileName); err != nil {
			return nil, err
		}
	}
	overrides := []struct {
		key   string
		apply func()
	}{
		{"ranks", func() { ip.Ranks = v.GetInt("ranks") }},
		{"k", func() { ip.Mesh.Type, ip.Mesh.K = "line", v.GetInt("k") }},
		{"nx", func() { ip.Mesh.Type, ip.Mesh.NX = "quad", v.GetInt("nx") }},
		{"ny", func() { ip.Mesh.Type, ip.Mesh.NY = "quad", v.GetInt("ny") }},
		{"mesh", func() { ip.Mesh.Type, ip.Mesh.File = "file", v.GetString("mesh") }},
		{"partitioner", func() { ip.Partitioner = v.GetString("partitioner") }},
		{"overlap", func() { ip.Overlap = v.GetInt("overlap") }},
		{"ghost", func() { ip.GhostLayer = v.GetBool("ghost") }},
		{"n", func() { ip.PolynomialOrder = v.GetInt("n") }},
		{"handle", func() { ip.Handle = v.GetString("handle") }},
		{"interface", func() { ip.Interface = v.GetString("interface") }},
	}
	// Flag defaults do not count as set
	for _, o := range overrides {
		if v.IsSet(o.key) {
			o.apply()
		}
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func buildConnectivity(ip *InputParameters.DDParameters) (*mesh.Connectivity, error) {
	switch strings.ToLower(ip.Mesh.Type) {
	case "quad":
		return mesh.NewStructured2D(ip.Mesh.NX, ip.Mesh.NY)
	case "file":
		data, err := os.ReadFile(ip.Mesh.File)
		if err != nil {
			return nil, fmt.Errorf("reading mesh file: %w", err)
		}
		return mesh.ReadConnectivity(data)
	default:
		return mesh.NewStructured1D(ip.Mesh.K)
	}
}

func buildGrid(ip *InputParameters.DDParameters, logger *zap.Logger) (g *mesh.DDGrid, err error) {
	conn, err := buildConnectivity(ip)
	if err != nil {
		return
	}
	strategy, err := mesh.ParsePartitionStrategy(ip.Partitioner)
	if err != nil {
		return
	}
	var EToP []int
	if strategy == mesh.MetisPartition {
		EToP, err = metispart.NewPartitioner(conn, metispart.DefaultConfig(int32(ip.Ranks)), logger).Partition()
	} else {
		EToP, err = mesh.PartitionElements(conn.K, ip.Ranks, strategy)
	}
	if err != nil {
		return
	}
	opts := []mesh.GridOption{mesh.WithOverlap(ip.Overlap), mesh.WithLogger(logger)}
	if ip.GhostLayer {
		opts = append(opts, mesh.WithGhostLayer())
	}
	return mesh.NewDDGrid(conn, EToP, ip.Ranks, opts...)
}

func buildSpaces(g *mesh.DDGrid, N int) (spaces []*space.DGSpace, err error) {
	spaces = make([]*space.DGSpace, g.NRanks)
	for r := range spaces {
		if spaces[r], err = space.NewDGSpace(g.View(r), N); err != nil {
			return nil, err
		}
	}
	return
}
