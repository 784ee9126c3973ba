package metrics

import (
	"math"

	"github.com/san-kum/circsim/internal/sim"
	"github.com/san-kum/circsim/internal/topology"
)

// NodeResidual is the net current leaving node n through its links. Current
// enters an element at post 0 and leaves at post 1.
func NodeResidual(f sim.Frame, n int) float64 {
	sum := 0.0
	for _, l := range f.Topology.Nodes[n].Links {
		if l.Post == 0 {
			sum += l.Element.Current()
		} else {
			sum -= l.Element.Current()
		}
	}
	return sum
}

// KCLResidual tracks the worst current imbalance over all non-ground nodes.
type KCLResidual struct {
	name  string
	worst float64
}

func NewKCLResidual() *KCLResidual {
	return &KCLResidual{name: "kcl_residual"}
}

func (k *KCLResidual) Name() string { return k.name }

func (k *KCLResidual) Observe(f sim.Frame) {
	for n := range f.Topology.Nodes {
		if n == topology.Ground {
			continue
		}
		k.worst = math.Max(k.worst, math.Abs(NodeResidual(f, n)))
	}
}

func (k *KCLResidual) Value() float64 { return k.worst }

func (k *KCLResidual) Reset() { k.worst = 0 }
