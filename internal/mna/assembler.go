// Package mna assembles the Modified Nodal Analysis system for a circuit.
//
// Index space: node 0 is ground and has no row; node i maps to row i-1;
// voltage source k maps to row nodes-1+k. Stamp primitives take node
// indices (or VoltageSourceRow results) and silently drop ground.
package mna

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/linalg"
)

var ErrInvalidStamp = errors.New("mna: invalid stamp")

// Assembler owns the system matrix, right side, their templates and the
// pivot record. The arena is sized once per topology.
type Assembler struct {
	nodes   int
	sources int
	size    int

	matrix     [][]float64
	rhs        []float64
	origMatrix [][]float64
	origRHS    []float64
	pivot      []int

	err error
}

// New allocates a zeroed system for nodeCount nodes (ground included) and
// vsCount voltage-source rows.
func New(nodeCount, vsCount int) *Assembler {
	a := &Assembler{nodes: nodeCount, sources: vsCount}
	if nodeCount > 0 {
		a.size = nodeCount - 1 + vsCount
	}
	n := a.size

	// one backing block for both square matrices and both vectors
	arena := make([]float64, 2*n*n+2*n)
	a.matrix = rows(arena[:n*n], n)
	a.origMatrix = rows(arena[n*n:2*n*n], n)
	a.rhs = arena[2*n*n : 2*n*n+n]
	a.origRHS = arena[2*n*n+n:]
	a.pivot = make([]int, n)
	return a
}

func rows(block []float64, n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = block[i*n : (i+1)*n : (i+1)*n]
	}
	return m
}

func (a *Assembler) Size() int { return a.size }

func (a *Assembler) NodeCount() int { return a.nodes }

func (a *Assembler) VoltageSourceCount() int { return a.sources }

// Matrix exposes the working matrix. After Factor it holds the LU factors
// in pivoted row order.
func (a *Assembler) Matrix() [][]float64 { return a.matrix }

func (a *Assembler) RightSide() []float64 { return a.rhs }

// Template returns the snapshot taken by the last Build.
func (a *Assembler) Template() ([][]float64, []float64) { return a.origMatrix, a.origRHS }

func (a *Assembler) Pivot() []int { return a.pivot }

// Err reports the first invalid stamp since the last Build or Restore.
func (a *Assembler) Err() error { return a.err }

func (a *Assembler) fail(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidStamp}, args...)...)
	}
}

func (a *Assembler) VoltageSourceRow(vs int) int { return a.nodes + vs }

// StampMatrix adds v to cell (i, j). Index 0 is ground and ignored.
func (a *Assembler) StampMatrix(i, j int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		a.fail("matrix (%d,%d) = %v", i, j, v)
		return
	}
	if i <= 0 || j <= 0 {
		return
	}
	if i > a.size || j > a.size {
		a.fail("matrix (%d,%d) outside %d×%d system", i, j, a.size, a.size)
		return
	}
	a.matrix[i-1][j-1] += v
}

// StampRightSide adds v to right-side entry i. Index 0 is ignored.
func (a *Assembler) StampRightSide(i int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		a.fail("right side %d = %v", i, v)
		return
	}
	if i <= 0 {
		return
	}
	if i > a.size {
		a.fail("right side %d outside system of size %d", i, a.size)
		return
	}
	a.rhs[i-1] += v
}

func (a *Assembler) StampResistor(n1, n2 int, r float64) {
	if r == 0 || math.IsNaN(r) {
		a.fail("resistance %v between %d and %d", r, n1, n2)
		return
	}
	a.StampConductance(n1, n2, 1/r)
}

func (a *Assembler) StampConductance(n1, n2 int, g float64) {
	a.StampMatrix(n1, n1, g)
	a.StampMatrix(n2, n2, g)
	a.StampMatrix(n1, n2, -g)
	a.StampMatrix(n2, n1, -g)
}

// StampVoltageSource constrains V(n2) - V(n1) = v on row vs. The solved
// unknown of that row is the current entering the source at n1.
func (a *Assembler) StampVoltageSource(n1, n2, vs int, v float64) {
	vn := a.VoltageSourceRow(vs)
	a.StampMatrix(vn, n1, -1)
	a.StampMatrix(vn, n2, 1)
	a.StampRightSide(vn, v)
	a.StampMatrix(n1, vn, 1)
	a.StampMatrix(n2, vn, -1)
}

// UpdateVoltageSource changes the value of an already stamped source.
func (a *Assembler) UpdateVoltageSource(vs int, v float64) {
	a.StampRightSide(a.VoltageSourceRow(vs), v)
}

// StampCurrentSource drives current i from n1 to n2 through the source.
func (a *Assembler) StampCurrentSource(n1, n2 int, i float64) {
	a.StampRightSide(n1, -i)
	a.StampRightSide(n2, i)
}

// StampVCVS makes source vs depend on V(n1) - V(n2) scaled by coef.
func (a *Assembler) StampVCVS(n1, n2 int, coef float64, vs int) {
	vn := a.VoltageSourceRow(vs)
	a.StampMatrix(vn, n1, coef)
	a.StampMatrix(vn, n2, -coef)
}

// StampVCCurrentSource drives g·(V(vn1) - V(vn2)) from cn1 to cn2.
func (a *Assembler) StampVCCurrentSource(cn1, cn2, vn1, vn2 int, g float64) {
	a.StampMatrix(cn1, vn1, g)
	a.StampMatrix(cn2, vn2, g)
	a.StampMatrix(cn1, vn2, -g)
	a.StampMatrix(cn2, vn1, -g)
}

// StampCCCS drives gain times the current of source vs from n1 to n2.
func (a *Assembler) StampCCCS(n1, n2, vs int, gain float64) {
	vn := a.VoltageSourceRow(vs)
	a.StampMatrix(n1, vn, gain)
	a.StampMatrix(n2, vn, -gain)
}

// Stamp invokes the steady contribution of every element.
func (a *Assembler) Stamp(elements []element.Element) {
	for _, e := range elements {
		e.Stamp(a)
	}
}

// Build zeroes the system, stamps every element and snapshots the result as
// the per-step template. Linear circuits are factored once here.
func (a *Assembler) Build(elements []element.Element, nonLinear bool) error {
	a.err = nil
	for i := range a.matrix {
		clear(a.matrix[i])
	}
	clear(a.rhs)
	clear(a.pivot)

	a.Stamp(elements)
	if a.err != nil {
		return a.err
	}

	for i := range a.matrix {
		copy(a.origMatrix[i], a.matrix[i])
	}
	copy(a.origRHS, a.rhs)

	if nonLinear || a.size == 0 {
		return nil
	}
	return a.Factor()
}

// Restore reloads the right side from the template, and the matrix too when
// full is set. It also clears any stamp error from the previous step.
func (a *Assembler) Restore(full bool) {
	a.err = nil
	copy(a.rhs, a.origRHS)
	if !full {
		return
	}
	for i := range a.matrix {
		copy(a.matrix[i], a.origMatrix[i])
	}
}

func (a *Assembler) Factor() error {
	if err := linalg.Factor(a.matrix, a.size, a.pivot); err != nil {
		return fmt.Errorf("mna: factor %d×%d system: %w", a.size, a.size, err)
	}
	return nil
}

// Solve solves the factored system against the current right side in place
// and returns it. The slice is reused by the next step.
func (a *Assembler) Solve() []float64 {
	linalg.Solve(a.matrix, a.size, a.pivot, a.rhs)
	return a.rhs
}

// Dump writes the template system, one row per unknown with its right side.
func (a *Assembler) Dump(w io.Writer) error {
	for i := 0; i < a.size; i++ {
		label := fmt.Sprintf("n%d", i+1)
		if i >= a.nodes-1 {
			label = fmt.Sprintf("vs%d", i-(a.nodes-1))
		}
		if _, err := fmt.Fprintf(w, "%-5s", label); err != nil {
			return err
		}
		for j := 0; j < a.size; j++ {
			if _, err := fmt.Fprintf(w, " %10.4g", a.origMatrix[i][j]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, " | %10.4g\n", a.origRHS[i]); err != nil {
			return err
		}
	}
	return nil
}
