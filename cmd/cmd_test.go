package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notargets/godd/InputParameters"
)

func lineParameters(handle string) *InputParameters.DDParameters {
	ip := InputParameters.NewDDParameters()
	ip.Mesh.K = 6
	ip.Overlap = 1
	ip.PolynomialOrder = 1
	ip.Handle = handle
	return ip
}

func TestRunExchange(t *testing.T) {
	for _, handle := range []string{"min", "max", "sum", "ghost", "disjoint", "shared"} {
		report, err := RunExchange(context.Background(), lineParameters(handle), zap.NewNop())
		require.NoError(t, err, handle)
		assert.True(t, report.Consistent, handle)
		assert.Equal(t, 12, report.GlobalDOFs)
		require.Len(t, report.Ranks, 2)
		assert.Equal(t, 4, report.Ranks[0].Elements)
		assert.Equal(t, 8, report.Ranks[1].LocalDOFs)
		switch handle {
		case "disjoint":
			assert.Equal(t, 6, report.Ranks[0].Marked)
			assert.Equal(t, 6, report.Ranks[1].Marked)
		case "ghost":
			// One overlap element on each side
			assert.Equal(t, 2, report.Ranks[0].Marked)
		case "shared":
			assert.Equal(t, 4, report.Ranks[1].Marked)
		}
	}
	{ // Reductions only from owners do not make the copies agree
		ip := lineParameters("sum")
		ip.Interface = "InteriorBorder_All"
		report, err := RunExchange(context.Background(), ip, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, report.Consistent)
	}
	{
		ip := lineParameters("min")
		ip.Interface = "Border_Border"
		_, err := RunExchange(context.Background(), ip, zap.NewNop())
		assert.Error(t, err)
	}
}

func TestRunExchangeQuad(t *testing.T) {
	ip := InputParameters.NewDDParameters()
	ip.Mesh = InputParameters.MeshParameters{Type: "quad", NX: 4, NY: 3}
	ip.Ranks = 3
	ip.Partitioner = "roundrobin"
	ip.GhostLayer = true
	ip.PolynomialOrder = 2
	for _, handle := range []string{"sum", "ghost", "disjoint"} {
		ip.Handle = handle
		report, err := RunExchange(context.Background(), ip, zap.NewNop())
		require.NoError(t, err, handle)
		assert.True(t, report.Consistent, handle)
		assert.Equal(t, 12*9, report.GlobalDOFs)
	}
}

func TestRunNeighbors(t *testing.T) {
	ip := InputParameters.NewDDParameters()
	ip.Mesh = InputParameters.MeshParameters{Type: "quad", NX: 2, NY: 2}
	ip.Ranks = 4
	ip.Overlap = 1
	report, err := RunNeighbors(context.Background(), ip, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {0, 3}, {0, 3}, {1, 2}}, report.Neighbors)
	assert.True(t, report.Connected)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "neighbors over InteriorBorder_All")
}

func TestCommands(t *testing.T) {
	{
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"partition", "--k", "6"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, out.String(), "6 elements, 7 faces over 2 ranks")
		assert.Contains(t, out.String(), "connected: true")
	}
	{
		fileName := filepath.Join(t.TempDir(), "params.yaml")
		require.NoError(t, os.WriteFile(fileName, []byte(`
Title: from file
Mesh:
  Type: line
  K: 6
Ranks: 2
Overlap: 1
Handle: disjoint
`), 0o644))
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"exchange", "-I", fileName, "--ranks", "3"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, out.String(), "\"from file\"")
		assert.Contains(t, out.String(), "rank   2:")
		assert.Contains(t, out.String(), "consistent: true")
	}
}
