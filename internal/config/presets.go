package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

// PresetPrefix selects a built-in circuit wherever a circuit path is accepted.
const PresetPrefix = "preset:"

var ErrUnknownPreset = errors.New("config: unknown preset")

func pt(x, y int) element.Point { return element.Point{X: x, Y: y} }

func res(from, to element.Point, ohms float64) ElementSpec {
	return ElementSpec{Type: "r", From: from, To: to, Params: map[string]float64{element.ParamResistance: ohms}}
}

func src(from, to element.Point, volts float64) ElementSpec {
	return ElementSpec{Type: "v", From: from, To: to, Params: map[string]float64{element.ParamVoltage: volts}}
}

func wire(from, to element.Point) ElementSpec {
	return ElementSpec{Type: "w", From: from, To: to}
}

func ground(at element.Point) ElementSpec {
	return ElementSpec{Type: "g", From: at}
}

var Presets = map[string]*Circuit{
	// 5 V across one resistor through two wires.
	"divider": {
		Name: "divider",
		Elements: []ElementSpec{
			ground(pt(0, 0)),
			src(pt(0, 0), pt(0, 4), 5),
			wire(pt(0, 4), pt(4, 4)),
			res(pt(4, 4), pt(4, 0), 1000),
			wire(pt(4, 0), pt(0, 0)),
		},
		Probes: []sim.Probe{
			{Name: "v_c", Kind: sim.ProbeNode, Point: pt(4, 4)},
			{Name: "i_r", Kind: sim.ProbeCurrent, Element: 3},
			{Name: "i_src", Kind: sim.ProbeCurrent, Element: 1},
		},
	},
	"half": {
		Name: "half",
		Elements: []ElementSpec{
			ground(pt(0, 0)),
			src(pt(0, 0), pt(0, 4), 10),
			res(pt(0, 4), pt(4, 4), 1000),
			res(pt(4, 4), pt(4, 0), 1000),
			wire(pt(4, 0), pt(0, 0)),
		},
		Probes: []sim.Probe{
			{Name: "v_mid", Kind: sim.ProbeNode, Point: pt(4, 4)},
			{Name: "i", Kind: sim.ProbeCurrent, Element: 2},
		},
	},
	"parallel": {
		Name: "parallel",
		Elements: []ElementSpec{
			ground(pt(0, 0)),
			src(pt(0, 0), pt(0, 4), 12),
			res(pt(0, 4), pt(0, 0), 1000),
			res(pt(0, 4), pt(0, 0), 2000),
		},
		Probes: []sim.Probe{
			{Name: "i_1k", Kind: sim.ProbeCurrent, Element: 2},
			{Name: "i_2k", Kind: sim.ProbeCurrent, Element: 3},
			{Name: "i_src", Kind: sim.ProbeCurrent, Element: 1},
		},
	},
	// Wheatstone bridge with a 10 kΩ galvanometer arm between L and R.
	"bridge": {
		Name: "bridge",
		Elements: []ElementSpec{
			ground(pt(0, 0)),
			src(pt(0, 0), pt(0, 8), 10),
			res(pt(0, 8), pt(-4, 4), 1000),
			res(pt(-4, 4), pt(0, 0), 2000),
			res(pt(0, 8), pt(4, 4), 1000),
			res(pt(4, 4), pt(0, 0), 1000),
			res(pt(-4, 4), pt(4, 4), 10000),
		},
		Probes: []sim.Probe{
			{Name: "v_left", Kind: sim.ProbeNode, Point: pt(-4, 4)},
			{Name: "v_right", Kind: sim.ProbeNode, Point: pt(4, 4)},
			{Name: "i_bridge", Kind: sim.ProbeCurrent, Element: 6},
		},
	},
}

// GetPreset returns a copy of a built-in circuit.
func GetPreset(name string) (*Circuit, error) {
	c, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return c.Clone(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
