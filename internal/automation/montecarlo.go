package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

// MonteCarloConfig perturbs every resistor of a circuit within a relative
// tolerance and reads a probe for each trial.
type MonteCarloConfig struct {
	Circuit   *config.Circuit
	Tolerance float64
	NumTrials int
	Steps     int
	Dt        float64
	Probe     sim.Probe
	Seed      int64
}

type MonteCarloResult struct {
	TrialID int
	Value   float64
	Solved  bool
}

// RunMonteCarlo executes the trials in order. Trials are reproducible for a
// non-zero seed.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *element.Registry) ([]MonteCarloResult, error) {
	if cfg.Tolerance < 0 || cfg.Tolerance >= 1 {
		return nil, fmt.Errorf("tolerance must be in [0, 1), got %g", cfg.Tolerance)
	}
	if err := cfg.Probe.Validate(len(cfg.Circuit.Elements)); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		elms, err := cfg.Circuit.Build(reg)
		if err != nil {
			return nil, err
		}
		for _, e := range elms {
			r, ok := e.(*element.Resistor)
			if !ok {
				continue
			}
			scale := 1 + (rng.Float64()-0.5)*2*cfg.Tolerance
			if err := r.SetParam(element.ParamResistance, r.Resistance()*scale); err != nil {
				return nil, err
			}
		}

		s := sim.New(sim.WithTimeStep(cfg.Dt))
		res := MonteCarloResult{TrialID: trial, Value: math.NaN()}
		err = s.SetElements(elms)
		if err == nil {
			_, err = s.Run(ctx, max(cfg.Steps, 1))
		}
		switch {
		case err == nil:
			res.Value = cfg.Probe.Read(s.Frame())
			res.Solved = true
		case !isSolveError(err):
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// MonteCarloStats summarizes the solved trials.
func MonteCarloStats(results []MonteCarloResult) (minV, maxV, mean float64, solved int) {
	minV, maxV = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, r := range results {
		if !r.Solved {
			continue
		}
		solved++
		sum += r.Value
		minV = math.Min(minV, r.Value)
		maxV = math.Max(maxV, r.Value)
	}
	if solved == 0 {
		return math.NaN(), math.NaN(), math.NaN(), 0
	}
	return minV, maxV, sum / float64(solved), solved
}

func isSolveError(err error) bool {
	return errors.Is(err, sim.ErrSingularMatrix) || errors.Is(err, sim.ErrNonFiniteSolution)
}
