package metrics

import (
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

// Dissipation averages the power absorbed by passive elements over the run.
type Dissipation struct {
	name    string
	total   float64
	samples int
}

func NewDissipation() *Dissipation {
	return &Dissipation{name: "dissipated_power"}
}

func (d *Dissipation) Name() string { return d.name }

func (d *Dissipation) Observe(f sim.Frame) {
	p := 0.0
	for _, e := range f.Elements {
		if e.PostCount() < 2 || e.VoltageSourceCount() > 0 {
			continue
		}
		p += e.VoltageDiff() * e.Current()
	}
	d.total += p
	d.samples++
}

func (d *Dissipation) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.total / float64(d.samples)
}

func (d *Dissipation) Reset() {
	d.total = 0
	d.samples = 0
}

// SourcePower averages the power delivered by voltage sources. A source
// pushing current out of its positive post delivers positive power.
type SourcePower struct {
	name    string
	total   float64
	samples int
}

func NewSourcePower() *SourcePower {
	return &SourcePower{name: "source_power"}
}

func (s *SourcePower) Name() string { return s.name }

func (s *SourcePower) Observe(f sim.Frame) {
	p := 0.0
	for _, e := range f.Elements {
		if e.Type() != element.TypeVoltage {
			continue
		}
		p -= e.VoltageDiff() * e.Current()
	}
	s.total += p
	s.samples++
}

func (s *SourcePower) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.total / float64(s.samples)
}

func (s *SourcePower) Reset() {
	s.total = 0
	s.samples = 0
}
