package sim

import (
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/topology"
)

// DefaultTimeStep is the fixed step used when none is configured.
const DefaultTimeStep = 5e-6

type State int

const (
	Uninitialized State = iota
	Analyzed
	Stepping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Analyzed:
		return "analyzed"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// Frame is the view of the circuit handed to metrics and observers after a
// successful step. It is only valid during the callback.
type Frame struct {
	Step         int
	Time         float64
	Elements     []element.Element
	Topology     *topology.Topology
	NodeVoltages []float64
}

// NodeVoltage returns the solved voltage at a grid point and whether any
// post sits there.
func (f Frame) NodeVoltage(p element.Point) (float64, bool) {
	if f.Topology == nil {
		return 0, false
	}
	n := f.Topology.NodeOf(p)
	if n < 0 {
		return 0, false
	}
	return f.NodeVoltages[n], true
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// Reading is the solved state of one element.
type Reading struct {
	Index    int
	Type     element.Type
	Posts    []element.Point
	Voltages []float64
	Current  float64
}

type Result struct {
	StepsTaken int
	Time       float64
	Metrics    map[string]float64
}
