package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCircuit marks an analyzed circuit without elements. Stepping it
	// is a no-op.
	ErrEmptyCircuit = errors.New("sim: circuit has no elements")

	// ErrSingularMatrix means the circuit has no unique solution, typically a
	// floating node or a loop of ideal voltage sources. It sticks until the
	// circuit is changed and analyzed again.
	ErrSingularMatrix = errors.New("sim: singular matrix")

	ErrNotAnalyzed = errors.New("sim: circuit not analyzed")

	// ErrNonFiniteSolution means the solve produced NaN or Inf.
	ErrNonFiniteSolution = errors.New("sim: solution is not finite")

	ErrElementIndex = errors.New("sim: element index out of range")
)

// SimulationError wraps a step failure with the position it happened at.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
