package InputParameters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []byte(`
Title: "Two rank overlap"
Mesh:
  Type: quad
  NX: 4
  NY: 2
Ranks: 4
Partitioner: roundrobin
Overlap: 1
PolynomialOrder: 2
Handle: disjoint
Interface: InteriorBorder_All
`)

func TestParse(t *testing.T) {
	ip := NewDDParameters()
	require.NoError(t, ip.Parse(sample))
	assert.Equal(t, "Two rank overlap", ip.Title)
	assert.Equal(t, MeshParameters{Type: "quad", K: 8, NX: 4, NY: 2}, ip.Mesh)
	assert.Equal(t, 4, ip.Ranks)
	assert.Equal(t, "roundrobin", ip.Partitioner)
	assert.Equal(t, 1, ip.Overlap)
	assert.False(t, ip.GhostLayer)
	assert.Equal(t, 2, ip.PolynomialOrder)
	assert.Equal(t, "disjoint", ip.Handle)
	assert.Equal(t, "InteriorBorder_All", ip.Interface)

	var buf bytes.Buffer
	ip.Print(&buf)
	assert.Contains(t, buf.String(), "\"Two rank overlap\"")
	assert.Contains(t, buf.String(), "[quad 4x2]")
	assert.Contains(t, buf.String(), "= Interface")
}

func TestDefaults(t *testing.T) {
	ip := NewDDParameters()
	require.NoError(t, ip.Parse([]byte("Title: defaults")))
	assert.Equal(t, "line", ip.Mesh.Type)
	assert.Equal(t, 8, ip.Mesh.K)
	assert.Equal(t, 2, ip.Ranks)
	assert.Equal(t, "min", ip.Handle)
}

func TestValidate(t *testing.T) {
	for name, input := range map[string]string{
		"mesh type": "Mesh: {Type: tet}",
		"line K":    "Mesh: {Type: line, K: 0}",
		"quad dims": "Mesh: {Type: quad, NX: 2}",
		"file":      "Mesh: {Type: file}",
		"ranks":     "Ranks: 0",
		"overlap":   "Overlap: -1",
		"order":     "PolynomialOrder: -2",
		"handle":    "Handle: median",
	} {
		assert.Error(t, NewDDParameters().Parse([]byte(input)), name)
	}
}

func TestReadFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(fileName, sample, 0o644))
	ip := NewDDParameters()
	require.NoError(t, ip.ReadFile(fileName))
	assert.Equal(t, 4, ip.Ranks)
	assert.Error(t, ip.ReadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
