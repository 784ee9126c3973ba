// Package metrics provides sim.Metric implementations for circuit runs.
package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/circsim/internal/sim"
)

// DefaultStabilityLimit is the node voltage bound used by the "stability"
// metric when created by name.
const DefaultStabilityLimit = 1e3

var constructors = map[string]func() sim.Metric{
	"kcl_residual":     func() sim.Metric { return NewKCLResidual() },
	"dissipated_power": func() sim.Metric { return NewDissipation() },
	"source_power":     func() sim.Metric { return NewSourcePower() },
	"stability":        func() sim.Metric { return NewStability(DefaultStabilityLimit) },
}

// New creates a metric by name.
func New(name string) (sim.Metric, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
