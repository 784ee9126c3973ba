// Package linalg implements the dense LU factorization used by the MNA solver.
//
// Factor and Solve work in place on row-major [][]float64 storage. L and U
// share the matrix: multipliers live below the diagonal, U on and above it.
package linalg

import (
	"errors"
	"fmt"
	"math"
)

var ErrSingular = errors.New("linalg: singular matrix")

// Factor computes the LU factorization of the leading n×n block of a using
// Crout's method with partial pivoting over the whole remaining column.
// pivot[j] receives the row swapped into position j. A pivot that is exactly
// zero stops the factorization before any division.
func Factor(a [][]float64, n int, pivot []int) error {
	for j := 0; j < n; j++ {
		// upper part of column j
		for i := 0; i < j; i++ {
			q := a[i][j]
			for k := 0; k < i; k++ {
				q -= a[i][k] * a[k][j]
			}
			a[i][j] = q
		}

		largest := 0.0
		largestRow := -1
		for i := j; i < n; i++ {
			q := a[i][j]
			for k := 0; k < j; k++ {
				q -= a[i][k] * a[k][j]
			}
			a[i][j] = q
			if x := math.Abs(q); x >= largest {
				largest = x
				largestRow = i
			}
		}
		if largestRow < 0 {
			// only reachable with NaN entries
			return fmt.Errorf("%w: no pivot in column %d", ErrSingular, j)
		}

		if j != largestRow {
			a[largestRow], a[j] = a[j], a[largestRow]
		}
		pivot[j] = largestRow

		if a[j][j] == 0 {
			return fmt.Errorf("%w: zero pivot in column %d", ErrSingular, j)
		}

		if j != n-1 {
			mult := 1.0 / a[j][j]
			for i := j + 1; i < n; i++ {
				a[i][j] *= mult
			}
		}
	}
	return nil
}

// Solve overwrites b with the solution of A·x = b, where a and pivot come
// from a successful Factor.
func Solve(a [][]float64, n int, pivot []int, b []float64) {
	// Permute until the first nonzero entry; everything before it stays
	// zero through forward substitution.
	i := 0
	for ; i < n; i++ {
		row := pivot[i]
		swap := b[row]
		b[row] = b[i]
		b[i] = swap
		if swap != 0 {
			break
		}
	}

	bi := i
	for i++; i < n; i++ {
		row := pivot[i]
		tot := b[row]
		b[row] = b[i]
		for j := bi; j < i; j++ {
			tot -= a[i][j] * b[j]
		}
		b[i] = tot
	}

	for i = n - 1; i >= 0; i-- {
		tot := b[i]
		for j := i + 1; j < n; j++ {
			tot -= a[i][j] * b[j]
		}
		b[i] = tot / a[i][i]
	}
}
