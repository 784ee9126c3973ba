package linalg

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func clone(a [][]float64) [][]float64 {
	c := make([][]float64, len(a))
	for i := range a {
		c[i] = append([]float64(nil), a[i]...)
	}
	return c
}

func randomSystem(rng *rand.Rand, n int) ([][]float64, []float64) {
	a := make([][]float64, n)
	b := make([]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		rowSum := 0.0
		for j := range a[i] {
			a[i][j] = rng.Float64()*2 - 1
			rowSum += math.Abs(a[i][j])
		}
		// diagonal dominance keeps the system well conditioned
		a[i][i] += rowSum
		b[i] = rng.Float64()*10 - 5
	}
	return a, b
}

func residual(a [][]float64, x, b []float64) float64 {
	worst := 0.0
	for i := range a {
		sum := 0.0
		for j := range a[i] {
			sum += a[i][j] * x[j]
		}
		worst = math.Max(worst, math.Abs(sum-b[i]))
	}
	return worst
}

func TestFactorSolveMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 2, 3, 5, 8, 16, 40} {
		a, b := randomSystem(rng, n)

		lu := clone(a)
		x := append([]float64(nil), b...)
		pivot := make([]int, n)
		if err := Factor(lu, n, pivot); err != nil {
			t.Fatalf("n=%d: factor failed: %v", n, err)
		}
		Solve(lu, n, pivot, x)

		if r := residual(a, x, b); r > 1e-9 {
			t.Errorf("n=%d: residual %g too large", n, r)
		}

		flat := make([]float64, 0, n*n)
		for i := range a {
			flat = append(flat, a[i]...)
		}
		var ref mat.VecDense
		if err := ref.SolveVec(mat.NewDense(n, n, flat), mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
			t.Fatalf("n=%d: reference solve failed: %v", n, err)
		}
		for i := 0; i < n; i++ {
			if math.Abs(x[i]-ref.AtVec(i)) > 1e-9 {
				t.Errorf("n=%d: x[%d] = %g, reference %g", n, i, x[i], ref.AtVec(i))
			}
		}
	}
}

func TestFactorPivoting(t *testing.T) {
	// a zero leading entry forces a swap
	a := [][]float64{
		{0, 1, 2},
		{3, 1, 0},
		{1, 0, 4},
	}
	orig := clone(a)
	b := []float64{5, 5, 9}
	pivot := make([]int, 3)

	if err := Factor(a, 3, pivot); err != nil {
		t.Fatalf("factor failed: %v", err)
	}
	if pivot[0] != 1 {
		t.Errorf("expected row 1 to pivot column 0, got %d", pivot[0])
	}
	Solve(a, 3, pivot, b)

	if r := residual(orig, b, []float64{5, 5, 9}); r > 1e-12 {
		t.Errorf("residual %g, solution %v", r, b)
	}
}

func TestFactorSingular(t *testing.T) {
	tests := []struct {
		name string
		a    [][]float64
	}{
		{"dependent rows", [][]float64{{1, 2}, {2, 4}}},
		{"zero column", [][]float64{{1, 0, 0}, {0, 0, 1}, {2, 0, 3}}},
		{"floating conductance", [][]float64{
			{1, 0, 0},
			{0, 1e-3, -1e-3},
			{0, -1e-3, 1e-3},
		}},
		{"all zero", [][]float64{{0, 0}, {0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for attempt := 0; attempt < 3; attempt++ {
				a := clone(tt.a)
				err := Factor(a, len(a), make([]int, len(a)))
				if !errors.Is(err, ErrSingular) {
					t.Fatalf("attempt %d: expected ErrSingular, got %v", attempt, err)
				}
			}
		})
	}
}

func TestSolveZeroRightSide(t *testing.T) {
	a := [][]float64{{4, 1}, {1, 3}}
	pivot := make([]int, 2)
	if err := Factor(a, 2, pivot); err != nil {
		t.Fatal(err)
	}
	b := []float64{0, 0}
	Solve(a, 2, pivot, b)
	if b[0] != 0 || b[1] != 0 {
		t.Errorf("expected zero solution, got %v", b)
	}
}

func TestSolveReusesFactorization(t *testing.T) {
	a := [][]float64{{2, 1, 0}, {1, 3, 1}, {0, 1, 4}}
	orig := clone(a)
	pivot := make([]int, 3)
	if err := Factor(a, 3, pivot); err != nil {
		t.Fatal(err)
	}

	for _, rhs := range [][]float64{{1, 0, 0}, {0, 0, 1}, {3, 5, 5}} {
		x := append([]float64(nil), rhs...)
		Solve(a, 3, pivot, x)
		if r := residual(orig, x, rhs); r > 1e-12 {
			t.Errorf("rhs %v: residual %g", rhs, r)
		}
	}
}

func BenchmarkFactor(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	a, _ := randomSystem(rng, 64)
	pivot := make([]int, 64)
	for i := 0; i < b.N; i++ {
		_ = Factor(clone(a), 64, pivot)
	}
}
