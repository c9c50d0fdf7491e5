// Package comm runs the ranks of a decomposed grid as goroutines and drives
// data handles through collective entity communication rounds.
package comm

import (
	"fmt"

	"github.com/notargets/godd/dd"
)

// Interface selects which entity copies take part in a round. An entity is
// gathered when its local partition type is in Send, and only for remote
// copies whose partition type is in Recv.
type Interface struct {
	Name       string
	Send, Recv dd.PartitionSet
}

var (
	InteriorBorderAll = Interface{
		Name: "InteriorBorder_All",
		Send: dd.InteriorBorderPartitions,
		Recv: dd.AllPartitions,
	}
	InteriorBorderInteriorBorder = Interface{
		Name: "InteriorBorder_InteriorBorder",
		Send: dd.InteriorBorderPartitions,
		Recv: dd.InteriorBorderPartitions,
	}
	AllAll = Interface{
		Name: "All_All",
		Send: dd.AllPartitions,
		Recv: dd.AllPartitions,
	}
)

var interfaces = []Interface{InteriorBorderAll, InteriorBorderInteriorBorder, AllAll}

func (iface Interface) String() string { return iface.Name }

// ParseInterface accepts an interface name such as "All_All"
func ParseInterface(name string) (Interface, error) {
	for _, iface := range interfaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return Interface{}, fmt.Errorf("unknown communication interface %q", name)
}
