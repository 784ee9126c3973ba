package automation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

// ParameterSweep steps one element parameter across a range and reads a
// probe after a fixed number of steps at every point.
type ParameterSweep struct {
	Circuit  *config.Circuit
	Element  int
	Param    string
	ParamMin float64
	ParamMax float64
	NumSteps int
	Steps    int
	Dt       float64
	Probe    sim.Probe
	// Workers bounds the number of points solved at once; each point owns
	// its own simulator. Zero means GOMAXPROCS.
	Workers int
}

// SweepResult holds one point of a parameter sweep
type SweepResult struct {
	ParamValue float64
	Value      float64
	Err        error
}

func (sw *ParameterSweep) values() []float64 {
	if sw.NumSteps == 1 {
		return []float64{sw.ParamMin}
	}
	out := make([]float64, sw.NumSteps)
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	for i := range out {
		out[i] = sw.ParamMin + float64(i)*step
	}
	return out
}

// RunSweep executes a parameter sweep. A point whose circuit cannot be
// solved carries its error in the result; setup errors abort the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *element.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", sweep.NumSteps)
	}
	if sweep.Element < 0 || sweep.Element >= len(sweep.Circuit.Elements) {
		return nil, fmt.Errorf("%w: %d", sim.ErrElementIndex, sweep.Element)
	}
	if err := sweep.Probe.Validate(len(sweep.Circuit.Elements)); err != nil {
		return nil, err
	}

	values := sweep.values()
	results := make([]SweepResult, len(values))

	workers := sweep.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				v, err := sweepPoint(ctx, sweep, reg, values[idx])
				results[idx] = SweepResult{ParamValue: values[idx], Value: v, Err: err}
			}
		}()
	}

	var ctxErr error
feed:
	for idx := range values {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	for _, r := range results {
		if r.Err != nil && !isSolveError(r.Err) {
			return nil, r.Err
		}
	}
	return results, nil
}

func sweepPoint(ctx context.Context, sweep *ParameterSweep, reg *element.Registry, value float64) (float64, error) {
	elms, err := sweep.Circuit.Build(reg)
	if err != nil {
		return math.NaN(), err
	}
	if err := elms[sweep.Element].SetParam(sweep.Param, value); err != nil {
		return math.NaN(), err
	}

	s := sim.New(sim.WithTimeStep(sweep.Dt))
	if err := s.SetElements(elms); err != nil {
		return math.NaN(), err
	}
	steps := sweep.Steps
	if steps < 1 {
		steps = 1
	}
	if _, err := s.Run(ctx, steps); err != nil {
		return math.NaN(), err
	}
	return sweep.Probe.Read(s.Frame()), nil
}
