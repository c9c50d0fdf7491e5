/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/godd/InputParameters"
	"github.com/notargets/godd/comm"
	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
)

// NeighborsCmd represents the neighbors command
var NeighborsCmd = &cobra.Command{
	Use:   "neighbors",
	Short: "Find the neighbor ranks of every rank by communication",
	Long: `
Every rank sends its rank number across the chosen interface and collects the
ranks it hears from. The result is checked against the grid decomposition and
the communication graph is tested for connectivity.

godd neighbors --ranks 4 --nx 4 --ny 4 --overlap 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		report, err := RunNeighbors(cmd.Context(), ip, logger)
		if err != nil {
			return err
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(NeighborsCmd)
	addGridFlags(NeighborsCmd)
	NeighborsCmd.Flags().String("interface", comm.InteriorBorderAll.Name, "InteriorBorder_All, InteriorBorder_InteriorBorder or All_All")
}

type NeighborReport struct {
	Interface comm.Interface
	Neighbors [][]int // Ranks heard from, per rank
	Expected  [][]int // Ranks sharing an entity, per rank
	Connected bool
}

func (r *NeighborReport) Print(w io.Writer) {
	fmt.Fprintf(w, "neighbors over %s\n", r.Interface)
	for rank, nbrs := range r.Neighbors {
		fmt.Fprintf(w, "rank %3d: %v (shares entities with %v)\n", rank, nbrs, r.Expected[rank])
	}
	fmt.Fprintf(w, "connected: %v\n", r.Connected)
}

func RunNeighbors(ctx context.Context, ip *InputParameters.DDParameters, logger *zap.Logger) (report *NeighborReport, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	g, err := buildGrid(ip, logger)
	if err != nil {
		return
	}
	iface := comm.InteriorBorderAll
	if ip.Interface != "" {
		if iface, err = comm.ParseInterface(ip.Interface); err != nil {
			return
		}
	}
	sets := make([]*dd.NeighborSet, g.NRanks)
	for r := range sets {
		sets[r] = dd.NewNeighborSet()
	}
	err = comm.NewWorld(g, comm.WithLogger(logger)).Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		h := dd.NewNeighborDataHandle(c.View().Dim(), c.Rank(), sets[c.Rank()])
		return comm.Communicate[int](ctx, c, h, iface)
	})
	if err != nil {
		return nil, err
	}
	report = &NeighborReport{
		Interface: iface,
		Neighbors: make([][]int, g.NRanks),
		Expected:  make([][]int, g.NRanks),
	}
	for r, ns := range sets {
		report.Neighbors[r] = ns.Ranks()
		report.Expected[r] = g.View(r).Neighbors()
	}
	report.Connected = mesh.Connected(mesh.NewCommunicationGraph(g.NRanks, report.Neighbors))
	return
}
