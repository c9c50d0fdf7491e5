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
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/godd/InputParameters"
	"github.com/notargets/godd/comm"
	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
	"github.com/notargets/godd/space"
)

// ExchangeCmd represents the exchange command
var ExchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Synchronize a DG vector between the ranks with one data handle",
	Long: `
Builds the mesh, partitions it, sets up a DG space on every rank and runs one
communication round of the chosen handle:

  min, max, sum   reduce the values of every shared DOF
  ghost           mark the DOFs of overlap and ghost elements
  disjoint        assign every DOF to exactly one rank
  shared          mark the DOFs held by more than one rank

godd exchange -I params.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		ip.Print(cmd.OutOrStdout())
		report, err := RunExchange(cmd.Context(), ip, logger)
		if err != nil {
			return err
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ExchangeCmd)
	addGridFlags(ExchangeCmd)
	ExchangeCmd.Flags().String("handle", "min", "min, max, sum, ghost, disjoint or shared")
	ExchangeCmd.Flags().String("interface", "", "InteriorBorder_All, InteriorBorder_InteriorBorder or All_All")
}

type RankSummary struct {
	Rank      int
	Elements  int // Local elements, owned or not
	LocalDOFs int
	Marked    int // DOFs changed by a reduction, flagged, or owned
}

type ExchangeReport struct {
	Handle     string
	Interface  comm.Interface
	GlobalDOFs int
	Ranks      []RankSummary
	// Consistent is the handle's postcondition: copies agree for reductions,
	// every DOF has one owner for disjoint, flags match element types for ghost
	Consistent bool
}

func (r *ExchangeReport) Print(w io.Writer) {
	fmt.Fprintf(w, "handle %s over %s, %d global DOFs\n", r.Handle, r.Interface, r.GlobalDOFs)
	for _, rs := range r.Ranks {
		fmt.Fprintf(w, "rank %3d: %5d elements %6d DOFs %6d marked\n", rs.Rank, rs.Elements, rs.LocalDOFs, rs.Marked)
	}
	fmt.Fprintf(w, "consistent: %v\n", r.Consistent)
}

func defaultInterface(handle string) comm.Interface {
	switch handle {
	case "ghost", "disjoint":
		return comm.InteriorBorderAll
	default:
		return comm.AllAll
	}
}

// RunExchange runs one round of the handle named in ip on every rank
func RunExchange(ctx context.Context, ip *InputParameters.DDParameters, logger *zap.Logger) (report *ExchangeReport, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	g, err := buildGrid(ip, logger)
	if err != nil {
		return
	}
	spaces, err := buildSpaces(g, ip.PolynomialOrder)
	if err != nil {
		return
	}
	handle := strings.ToLower(ip.Handle)
	iface := defaultInterface(handle)
	if ip.Interface != "" {
		if iface, err = comm.ParseInterface(ip.Interface); err != nil {
			return
		}
	}
	report = &ExchangeReport{
		Handle:     handle,
		Interface:  iface,
		GlobalDOFs: spaces[0].Size(),
		Ranks:      make([]RankSummary, g.NRanks),
	}
	for r, s := range spaces {
		report.Ranks[r] = RankSummary{Rank: r, Elements: len(g.View(r).Elements()), LocalDOFs: s.LocalDOFs()}
	}
	world := comm.NewWorld(g, comm.WithLogger(logger))
	switch handle {
	case "min", "max", "sum":
		err = exchangeValues(ctx, world, spaces, handle, iface, report)
	case "ghost", "shared":
		err = exchangeFlags(ctx, world, spaces, handle, iface, report)
	case "disjoint":
		err = exchangeOwners(ctx, world, spaces, iface, report)
	default:
		err = fmt.Errorf("unknown handle %q", ip.Handle)
	}
	if err != nil {
		return nil, err
	}
	return
}

// initialValue differs on every rank so reductions have something to do
func initialValue(rank, dof int) float64 {
	return float64((dof*7+rank*13)%17) + float64(rank)
}

func exchangeValues(ctx context.Context, world *comm.World, spaces []*space.DGSpace,
	handle string, iface comm.Interface, report *ExchangeReport) (err error) {
	var (
		vectors = make([]*dd.DenseVector, len(spaces))
		before  = make([][]float64, len(spaces))
	)
	for r, s := range spaces {
		vectors[r] = dd.NewDenseVector(max(1, s.Size()), nil)
		eachLocalDOF(s, func(dof int) { vectors[r].Set(dof, initialValue(r, dof)) })
		before[r] = append([]float64(nil), vectors[r].Raw().RawVector().Data...)
	}
	err = world.Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		var (
			s = spaces[c.Rank()]
			v = vectors[c.Rank()]
			h *dd.SpaceDataHandle[float64]
		)
		switch handle {
		case "max":
			h = dd.NewMaxDataHandle[float64](s, v)
		case "sum":
			h = dd.NewSumDataHandle[float64](s, v)
		default:
			h = dd.NewMinDataHandle[float64](s, v)
		}
		return comm.Communicate[float64](ctx, c, h, iface)
	})
	if err != nil {
		return
	}
	for r, s := range spaces {
		eachLocalDOF(s, func(dof int) {
			if vectors[r].At(dof) != before[r][dof] {
				report.Ranks[r].Marked++
			}
		})
	}
	report.Consistent = copiesAgree(spaces, func(r, dof int) float64 { return vectors[r].At(dof) })
	return
}

func exchangeFlags(ctx context.Context, world *comm.World, spaces []*space.DGSpace,
	handle string, iface comm.Interface, report *ExchangeReport) (err error) {
	vectors := make([]dd.SliceVector[bool], len(spaces))
	for r, s := range spaces {
		vectors[r] = dd.NewSliceVector[bool](s.Size())
	}
	err = world.Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		var h *dd.SpaceDataHandle[bool]
		if handle == "ghost" {
			h = dd.NewGhostDataHandle(spaces[c.Rank()], vectors[c.Rank()], true)
		} else {
			h = dd.NewSharedDOFDataHandle(spaces[c.Rank()], vectors[c.Rank()], true)
		}
		return comm.Communicate[bool](ctx, c, h, iface)
	})
	if err != nil {
		return
	}
	for r, s := range spaces {
		eachLocalDOF(s, func(dof int) {
			if vectors[r][dof] {
				report.Ranks[r].Marked++
			}
		})
	}
	if handle == "ghost" {
		report.Consistent = ghostFlagsMatch(spaces, vectors, iface)
	} else {
		report.Consistent = copiesAgree(spaces, func(r, dof int) bool { return vectors[r][dof] })
	}
	return
}

func exchangeOwners(ctx context.Context, world *comm.World, spaces []*space.DGSpace,
	iface comm.Interface, report *ExchangeReport) (err error) {
	vectors := make([]dd.SliceVector[int], len(spaces))
	for r, s := range spaces {
		vectors[r] = dd.NewSliceVector[int](s.Size())
	}
	err = world.Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		h := dd.NewDisjointPartitioningDataHandle[int](spaces[c.Rank()], vectors[c.Rank()], c.Rank(), true)
		return comm.Communicate[int](ctx, c, h, iface)
	})
	if err != nil {
		return
	}
	claims := make(map[int]int)
	for r, s := range spaces {
		eachLocalDOF(s, func(dof int) {
			if vectors[r][dof] == r {
				report.Ranks[r].Marked++
				claims[dof]++
			}
		})
	}
	report.Consistent = len(claims) == report.GlobalDOFs
	for _, n := range claims {
		if n != 1 {
			report.Consistent = false
		}
	}
	return
}

func eachLocalDOF(s *space.DGSpace, fn func(dof int)) {
	var gidx []int
	for _, e := range s.View().Entities(0) {
		gidx = s.GlobalIndices(e, gidx)
		for _, dof := range gidx {
			fn(dof)
		}
	}
}

// copiesAgree checks that every rank holding a DOF sees the same value
func copiesAgree[T comparable](spaces []*space.DGSpace, value func(rank, dof int) T) bool {
	seen := make(map[int]T)
	for r, s := range spaces {
		agree := true
		eachLocalDOF(s, func(dof int) {
			if prev, ok := seen[dof]; ok && prev != value(r, dof) {
				agree = false
			}
			seen[dof] = value(r, dof)
		})
		if !agree {
			return false
		}
	}
	return true
}

// ghostFlagsMatch checks that exactly the DOFs of overlap and ghost elements
// got flagged, among the elements that received anything
func ghostFlagsMatch(spaces []*space.DGSpace, vectors []dd.SliceVector[bool], iface comm.Interface) bool {
	var gidx []int
	for r, s := range spaces {
		rv := s.View()
		for _, e := range rv.Entities(0) {
			want := !dd.InteriorOrBorder(e) && iface.Recv.Contains(e.PartitionType()) && hasSender(rv, e, iface)
			gidx = s.GlobalIndices(e, gidx)
			for _, dof := range gidx {
				if vectors[r][dof] != want {
					return false
				}
			}
		}
	}
	return true
}

func hasSender(rv *mesh.RankView, e dd.Entity, iface comm.Interface) bool {
	for _, rc := range rv.Remotes(e) {
		if iface.Send.Contains(rc.Type) {
			return true
		}
	}
	return false
}
