// Package automation runs scripted circuit sessions, parameter sweeps and
// tolerance analyses on top of the simulator.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

var ErrExpectation = errors.New("automation: expectation failed")

// Scenario defines a scripted sequence of edits, runs and checks on one circuit.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Circuit     string         `yaml:"circuit"`
	Dt          float64        `yaml:"dt"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep holds exactly one action.
type ScenarioStep struct {
	Run    int                 `yaml:"run,omitempty"`
	Set    *ParamEdit          `yaml:"set,omitempty"`
	Move   *PostMove           `yaml:"move,omitempty"`
	Add    *config.ElementSpec `yaml:"add,omitempty"`
	Remove *int                `yaml:"remove,omitempty"`
	Expect *Expectation        `yaml:"expect,omitempty"`
}

type ParamEdit struct {
	Element int     `yaml:"element"`
	Param   string  `yaml:"param"`
	Value   float64 `yaml:"value"`
}

type PostMove struct {
	Element int           `yaml:"element"`
	Post    int           `yaml:"post"`
	To      element.Point `yaml:"to"`
}

// Expectation compares a probe of the circuit against a value.
type Expectation struct {
	Probe string  `yaml:"probe"`
	Value float64 `yaml:"value"`
	Tol   float64 `yaml:"tol"`
}

func (st ScenarioStep) action() string {
	switch {
	case st.Set != nil:
		return "set"
	case st.Move != nil:
		return "move"
	case st.Add != nil:
		return "add"
	case st.Remove != nil:
		return "remove"
	case st.Expect != nil:
		return "expect"
	case st.Run > 0:
		return "run"
	}
	return ""
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

type ScenarioResult struct {
	Simulator *sim.Simulator
	Trace     *sim.Trace
	Circuit   *config.Circuit
}

// RunScenario executes all steps in order, writing progress to w. It stops
// at the first failing step.
func RunScenario(ctx context.Context, scenario *Scenario, reg *element.Registry, w io.Writer) (*ScenarioResult, error) {
	circuit, err := config.LoadCircuit(scenario.Circuit)
	if err != nil {
		return nil, err
	}
	elms, err := circuit.Build(reg)
	if err != nil {
		return nil, err
	}

	dt := scenario.Dt
	if dt == 0 {
		dt = circuit.TimeStep
	}
	s := sim.New(sim.WithTimeStep(dt))
	trace := sim.NewTrace(append([]sim.Probe(nil), circuit.Probes...)...)
	s.AddObserver(trace)

	res := &ScenarioResult{Simulator: s, Trace: trace, Circuit: circuit}
	if err := s.SetElements(elms); err != nil && !errors.Is(err, sim.ErrSingularMatrix) {
		return res, err
	}

	for i, step := range scenario.Steps {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		action := step.action()
		fmt.Fprintf(w, "step %d/%d: %s\n", i+1, len(scenario.Steps), action)

		var err error
		switch action {
		case "set":
			err = s.SetParam(step.Set.Element, step.Set.Param, step.Set.Value)
		case "move":
			err = s.MovePost(step.Move.Element, step.Move.Post, step.Move.To)
		case "add":
			var e element.Element
			e, err = reg.New(step.Add.Type, step.Add.From, step.Add.To, step.Add.Params)
			if err == nil {
				err = s.AddElement(e)
			}
		case "remove":
			err = s.RemoveElement(*step.Remove)
			if err == nil || errors.Is(err, sim.ErrSingularMatrix) {
				if perr := shiftProbes(trace.Probes, *step.Remove); perr != nil {
					err = perr
				}
			}
		case "run":
			_, err = s.Run(ctx, step.Run)
		case "expect":
			err = check(s, trace.Probes, step.Expect)
		default:
			err = fmt.Errorf("no action")
		}

		// Edits that leave the circuit singular are legal; the next run reports it.
		if err != nil && (action == "run" || !errors.Is(err, sim.ErrSingularMatrix)) {
			return res, fmt.Errorf("step %d (%s): %w", i+1, action, err)
		}
	}

	res.Circuit = config.FromElements(circuit.Name, s.Elements())
	res.Circuit.TimeStep = circuit.TimeStep
	res.Circuit.Probes = trace.Probes
	return res, nil
}

// shiftProbes renumbers element probes after element removed is taken out of the list.
// A probe on the removed element itself is an error.
func shiftProbes(probes []sim.Probe, removed int) error {
	for i := range probes {
		p := &probes[i]
		if p.Kind == sim.ProbeNode {
			continue
		}
		switch {
		case p.Element == removed:
			return fmt.Errorf("probe %q: %w: element %d was removed", p.Name, sim.ErrElementIndex, removed)
		case p.Element > removed:
			p.Element--
		}
	}
	return nil
}

func check(s *sim.Simulator, probes []sim.Probe, exp *Expectation) error {
	for _, p := range probes {
		if p.Name != exp.Probe {
			continue
		}
		got := p.Read(s.Frame())
		tol := exp.Tol
		if tol == 0 {
			tol = 1e-6
		}
		if math.IsNaN(got) || math.Abs(got-exp.Value) > tol {
			return fmt.Errorf("%w: %s = %g, want %g ± %g", ErrExpectation, p.Name, got, exp.Value, tol)
		}
		return nil
	}
	return fmt.Errorf("%w: no probe named %q", ErrExpectation, exp.Probe)
}
