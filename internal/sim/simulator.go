// Package sim drives a circuit through analysis and fixed-step solving.
//
// A Simulator owns its element list, topology and MNA arena. Any change to
// the element list or to element geometry or parameters must go through
// SetElements, AnalyzeCircuit or one of the editing helpers, which rerun the
// full analysis. Simulator is not safe for concurrent use.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/linalg"
	"github.com/san-kum/circsim/internal/mna"
	"github.com/san-kum/circsim/internal/topology"
)

type Simulator struct {
	elements []element.Element
	topo     *topology.Topology
	asm      *mna.Assembler
	volts    []float64

	state State
	err   error

	dt    float64
	time  float64
	steps int

	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

type Option func(*Simulator)

// WithTimeStep sets the fixed step. Non-positive values keep the default.
func WithTimeStep(dt float64) Option {
	return func(s *Simulator) {
		if dt > 0 && !math.IsInf(dt, 0) {
			s.dt = dt
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		dt:        DefaultTimeStep,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) State() State { return s.state }

// Err reports the condition left by the last analysis: nil, ErrEmptyCircuit,
// or the error that stops every step until the circuit changes.
func (s *Simulator) Err() error {
	if s.state != Uninitialized && s.err == nil && len(s.elements) == 0 {
		return ErrEmptyCircuit
	}
	return s.err
}

func (s *Simulator) Time() float64     { return s.time }
func (s *Simulator) TimeStep() float64 { return s.dt }
func (s *Simulator) Steps() int        { return s.steps }

// Elements returns the element list in analysis order.
func (s *Simulator) Elements() []element.Element {
	return append([]element.Element(nil), s.elements...)
}

func (s *Simulator) Topology() *topology.Topology { return s.topo }

// NodeVoltages returns the last solved voltage of every node, ground first.
func (s *Simulator) NodeVoltages() []float64 {
	return append([]float64(nil), s.volts...)
}

// SetElements replaces the circuit and analyzes it.
func (s *Simulator) SetElements(elements []element.Element) error {
	s.elements = append([]element.Element(nil), elements...)
	return s.AnalyzeCircuit()
}

// AnalyzeCircuit rebuilds nodes, voltage-source indices and the MNA system
// from the current element list. Element voltages and currents are left as
// they are; node voltages are rebuilt from them under the new numbering.
func (s *Simulator) AnalyzeCircuit() error {
	s.err = nil
	s.state = Analyzed

	topo := topology.Analyze(s.elements)
	s.topo = topo

	if s.asm == nil || s.asm.NodeCount() != topo.NodeCount() || s.asm.VoltageSourceCount() != topo.VoltageSourceCount() {
		s.asm = mna.New(topo.NodeCount(), topo.VoltageSourceCount())
	}
	s.volts = nodeVoltages(topo)

	if len(s.elements) == 0 {
		s.logger.Debug("empty circuit analyzed")
		return nil
	}

	if err := s.asm.Build(s.elements, topo.NonLinear); err != nil {
		if errors.Is(err, linalg.ErrSingular) {
			err = fmt.Errorf("%w: %w", ErrSingularMatrix, err)
		}
		s.err = err
		s.logger.Warn("circuit analysis failed",
			"elements", len(s.elements),
			"nodes", topo.NodeCount(),
			"error", err)
		return err
	}

	s.logger.Debug("circuit analyzed",
		"elements", len(s.elements),
		"nodes", topo.NodeCount(),
		"voltage_sources", topo.VoltageSourceCount(),
		"size", s.asm.Size(),
		"nonlinear", topo.NonLinear)
	return nil
}

// nodeVoltages rebuilds node voltages under the new numbering from the
// element post voltages, which survive analysis.
func nodeVoltages(topo *topology.Topology) []float64 {
	volts := make([]float64, topo.NodeCount())
	for n := 1; n < len(topo.Nodes); n++ {
		if links := topo.Nodes[n].Links; len(links) > 0 {
			volts[n] = links[0].Element.Voltage(links[0].Post)
		}
	}
	return volts
}

// Step advances the circuit by one timestep. On failure no element state is
// modified and time does not advance.
func (s *Simulator) Step() error {
	if s.state == Uninitialized {
		return ErrNotAnalyzed
	}
	if s.err != nil {
		return s.fail(s.err)
	}
	if s.asm.Size() == 0 {
		return nil
	}

	nonLinear := s.topo.NonLinear
	s.asm.Restore(nonLinear)
	for _, e := range s.elements {
		e.DoStep(s.asm)
	}
	if err := s.asm.Err(); err != nil {
		return s.fail(err)
	}

	if nonLinear {
		if err := s.asm.Factor(); err != nil {
			return s.fail(fmt.Errorf("%w: %w", ErrSingularMatrix, err))
		}
	}

	x := s.asm.Solve()
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return s.fail(fmt.Errorf("%w: unknown %d is %v", ErrNonFiniteSolution, i, v))
		}
	}

	s.scatter(x)
	for _, e := range s.elements {
		e.CalculateCurrent()
	}

	s.time += s.dt
	s.steps++
	s.state = Stepping
	s.notify()
	return nil
}

func (s *Simulator) scatter(x []float64) {
	for n, node := range s.topo.Nodes {
		v := 0.0
		if n != topology.Ground {
			v = x[n-1]
		}
		s.volts[n] = v
		for _, l := range node.Links {
			l.Element.SetVoltage(l.Post, v)
		}
	}

	base := s.topo.NodeCount() - 1
	for k, rec := range s.topo.VoltageSources {
		rec.Element.SetCurrent(rec.Local, x[base+k])
	}
}

func (s *Simulator) fail(err error) error {
	return &SimulationError{Step: s.steps, Time: s.time, Wrapped: err}
}

// Frame returns the current view of the circuit. It shares storage with the
// simulator and is invalidated by the next step or analysis.
func (s *Simulator) Frame() Frame {
	return Frame{
		Step:         s.steps,
		Time:         s.time,
		Elements:     s.elements,
		Topology:     s.topo,
		NodeVoltages: s.volts,
	}
}

func (s *Simulator) notify() {
	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	f := s.Frame()
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, obs := range s.observers {
		obs.OnStep(f)
	}
}

// Run steps the circuit up to steps times, stopping early on the first error
// or when ctx is done. Metrics are reset before the first step.
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("sim: steps must be non-negative, got %d", steps)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	start := s.steps
	var runErr error

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
			runErr = s.Step()
		}
		if runErr != nil {
			break
		}
	}

	result.StepsTaken = s.steps - start
	result.Time = s.time
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, runErr
}

// Reset zeroes element voltages and currents, simulation time and metrics.
// Topology and parameters are kept.
func (s *Simulator) Reset() {
	for _, e := range s.elements {
		e.Reset()
	}
	clear(s.volts)
	s.time = 0
	s.steps = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	if s.state == Stepping {
		s.state = Analyzed
	}
}

// Snapshot copies the solved state of every element.
func (s *Simulator) Snapshot() []Reading {
	out := make([]Reading, len(s.elements))
	for i, e := range s.elements {
		r := Reading{
			Index:    i,
			Type:     e.Type(),
			Posts:    make([]element.Point, e.PostCount()),
			Voltages: make([]float64, e.PostCount()),
			Current:  e.Current(),
		}
		for p := 0; p < e.PostCount(); p++ {
			r.Posts[p] = e.Post(p)
			r.Voltages[p] = e.Voltage(p)
		}
		out[i] = r
	}
	return out
}

// DumpMatrix writes the assembled system template.
func (s *Simulator) DumpMatrix(w io.Writer) error {
	if s.asm == nil {
		return ErrNotAnalyzed
	}
	return s.asm.Dump(w)
}
