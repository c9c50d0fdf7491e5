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
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a mesh and report the decomposition",
	Long: `
Partitions the mesh and prints, for every rank, the local elements and faces
by partition type and the faces shared with each neighbor rank.

godd partition --nx 8 --ny 8 --ranks 4 --partitioner metis`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		g, err := buildGrid(ip, logger)
		if err != nil {
			return err
		}
		g.LogStats(logger)
		PrintPartition(cmd.OutOrStdout(), g)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	addGridFlags(PartitionCmd)
}

func PrintPartition(w io.Writer, g *mesh.DDGrid) {
	types := []dd.PartitionType{dd.InteriorEntity, dd.BorderEntity, dd.OverlapEntity, dd.GhostEntity}
	fmt.Fprintf(w, "%d elements, %d faces over %d ranks\n", g.Conn.K, len(g.Conn.Faces), g.NRanks)
	for _, stats := range g.Stats() {
		fmt.Fprintf(w, "rank %3d: %5d owned", stats.ID, stats.NumElements)
		for _, pt := range types {
			fmt.Fprintf(w, " %s=%d/%d", pt, stats.ElementTypes[pt], stats.FaceTypes[pt])
		}
		peers := make([]int, 0, len(stats.NumNeighbors))
		for peer := range stats.NumNeighbors {
			peers = append(peers, peer)
		}
		sort.Ints(peers)
		fmt.Fprint(w, " shared:")
		for _, peer := range peers {
			fmt.Fprintf(w, " %d->%d", peer, stats.NumNeighbors[peer])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "connected: %v\n", mesh.Connected(g.CommunicationGraph()))
}
