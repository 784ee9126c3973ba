package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/circsim/internal/element"
)

type ProbeKind string

const (
	// ProbeNode reads the node voltage at a grid point.
	ProbeNode ProbeKind = "node"
	// ProbeCurrent reads the current through an element.
	ProbeCurrent ProbeKind = "current"
	// ProbeVoltage reads the voltage across an element's first two posts.
	ProbeVoltage ProbeKind = "voltage"
)

type Probe struct {
	Name    string        `yaml:"name" toml:"name" json:"name"`
	Kind    ProbeKind     `yaml:"kind" toml:"kind" json:"kind"`
	Element int           `yaml:"element,omitempty" toml:"element,omitempty" json:"element,omitempty"`
	Point   element.Point `yaml:"point,omitempty" toml:"point,omitempty" json:"point,omitempty"`
}

// Validate checks the probe against a circuit of n elements.
func (p Probe) Validate(n int) error {
	switch p.Kind {
	case ProbeNode:
		return nil
	case ProbeCurrent, ProbeVoltage:
		if p.Element < 0 || p.Element >= n {
			return fmt.Errorf("probe %q: %w: %d", p.Name, ErrElementIndex, p.Element)
		}
		return nil
	}
	return fmt.Errorf("probe %q: unknown kind %q", p.Name, p.Kind)
}

// Read evaluates the probe on a frame. A node probe on a point with no post
// reads 0; an element probe past the end of the list reads NaN.
func (p Probe) Read(f Frame) float64 {
	if p.Kind != ProbeNode && (p.Element < 0 || p.Element >= len(f.Elements)) {
		return math.NaN()
	}
	switch p.Kind {
	case ProbeNode:
		v, _ := f.NodeVoltage(p.Point)
		return v
	case ProbeCurrent:
		return f.Elements[p.Element].Current()
	case ProbeVoltage:
		return f.Elements[p.Element].VoltageDiff()
	}
	return 0
}

// Trace records probe values after every step.
type Trace struct {
	Probes []Probe
	Times  []float64
	Values [][]float64
}

func NewTrace(probes ...Probe) *Trace {
	return &Trace{Probes: probes}
}

func (t *Trace) OnStep(f Frame) {
	row := make([]float64, len(t.Probes))
	for i, p := range t.Probes {
		row[i] = p.Read(f)
	}
	t.Times = append(t.Times, f.Time)
	t.Values = append(t.Values, row)
}

// Series returns the recorded values of probe i.
func (t *Trace) Series(i int) []float64 {
	out := make([]float64, len(t.Values))
	for k, row := range t.Values {
		out[k] = row[i]
	}
	return out
}

func (t *Trace) Names() []string {
	names := make([]string, len(t.Probes))
	for i, p := range t.Probes {
		names[i] = p.Name
	}
	return names
}

func (t *Trace) Reset() {
	t.Times = nil
	t.Values = nil
}
