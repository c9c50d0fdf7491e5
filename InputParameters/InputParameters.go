package InputParameters

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ghodss/yaml"
)

type MeshParameters struct {
	Type string `yaml:"Type"` // "line", "quad" or "file"
	K    int    `yaml:"K"`    // Elements of a line mesh
	NX   int    `yaml:"NX"`
	NY   int    `yaml:"NY"`
	File string `yaml:"File"` // YAML connectivity, for Type "file"
}

// Parameters obtained from the YAML input file
type DDParameters struct {
	Title           string         `yaml:"Title"`
	Mesh            MeshParameters `yaml:"Mesh"`
	Ranks           int            `yaml:"Ranks"`
	Partitioner     string         `yaml:"Partitioner"` // block, roundrobin or metis
	Overlap         int            `yaml:"Overlap"`
	GhostLayer      bool           `yaml:"GhostLayer"`
	PolynomialOrder int            `yaml:"PolynomialOrder"`
	Handle          string         `yaml:"Handle"`    // min, max, sum, ghost, disjoint or shared
	Interface       string         `yaml:"Interface"` // Empty selects the handle's usual interface
}

var (
	meshTypes = []string{"line", "quad", "file"}
	handles   = []string{"min", "max", "sum", "ghost", "disjoint", "shared"}
)

func NewDDParameters() *DDParameters {
	return &DDParameters{
		Title:       "untitled",
		Mesh:        MeshParameters{Type: "line", K: 8},
		Ranks:       2,
		Partitioner: "block",
		Handle:      "min",
	}
}

func (ip *DDParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

func (ip *DDParameters) ReadFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}
	return ip.Parse(data)
}

func oneOf(label, value string, choices []string) error {
	for _, c := range choices {
		if strings.EqualFold(value, c) {
			return nil
		}
	}
	return fmt.Errorf("%s %q is not one of %v", label, value, choices)
}

func (ip *DDParameters) Validate() (err error) {
	if err = oneOf("mesh type", ip.Mesh.Type, meshTypes); err != nil {
		return
	}
	switch strings.ToLower(ip.Mesh.Type) {
	case "line":
		if ip.Mesh.K < 1 {
			return fmt.Errorf("line mesh needs K > 0, got %d", ip.Mesh.K)
		}
	case "quad":
		if ip.Mesh.NX < 1 || ip.Mesh.NY < 1 {
			return fmt.Errorf("quad mesh needs NX, NY > 0, got %dx%d", ip.Mesh.NX, ip.Mesh.NY)
		}
	case "file":
		if ip.Mesh.File == "" {
			return fmt.Errorf("file mesh needs a File")
		}
	}
	if ip.Ranks < 1 {
		return fmt.Errorf("need at least one rank, got %d", ip.Ranks)
	}
	if ip.Overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d", ip.Overlap)
	}
	if ip.PolynomialOrder < 0 {
		return fmt.Errorf("polynomial order must not be negative, got %d", ip.PolynomialOrder)
	}
	return oneOf("handle", ip.Handle, handles)
}

func (ip *DDParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	switch strings.ToLower(ip.Mesh.Type) {
	case "quad":
		fmt.Fprintf(w, "[%s %dx%d]\t\t= Mesh\n", ip.Mesh.Type, ip.Mesh.NX, ip.Mesh.NY)
	case "file":
		fmt.Fprintf(w, "[%s %s]\t= Mesh\n", ip.Mesh.Type, ip.Mesh.File)
	default:
		fmt.Fprintf(w, "[%s K=%d]\t\t= Mesh\n", ip.Mesh.Type, ip.Mesh.K)
	}
	fmt.Fprintf(w, "[%d]\t\t\t\t= Ranks\n", ip.Ranks)
	fmt.Fprintf(w, "[%s]\t\t\t= Partitioner\n", ip.Partitioner)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Overlap\n", ip.Overlap)
	fmt.Fprintf(w, "[%v]\t\t\t= Ghost Layer\n", ip.GhostLayer)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Fprintf(w, "[%s]\t\t\t\t= Handle\n", ip.Handle)
	if ip.Interface != "" {
		fmt.Fprintf(w, "[%s]\t= Interface\n", ip.Interface)
	}
}
