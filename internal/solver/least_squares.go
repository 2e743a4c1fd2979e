package solver

import (
	"fmt"

	"cputemp_fitting/internal/linalg"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when time and value slices differ in length.
var ErrDimensionMismatch = linalg.ErrDimensionMismatch

// Coefficients of the line y = Intercept + Slope*x.
type Coefficients struct {
	Intercept float64
	Slope     float64
}

// LeastSquares fits y = a + b*t over all points by solving (XᵗX)β = Xᵗy.
// Fewer than two distinct time values make the system singular and the
// result non-finite.
func LeastSquares(time, values []float64) (Coefficients, error) {
	if len(time) != len(values) {
		return Coefficients{}, fmt.Errorf("%w: %d time values, %d readings", ErrDimensionMismatch, len(time), len(values))
	}
	aug, err := normalEquations(time, values)
	if err != nil {
		return Coefficients{}, err
	}
	beta := GaussJordan(aug)
	return Coefficients{Intercept: beta[0], Slope: beta[1]}, nil
}

// normalEquations builds the augmented 2×3 matrix [XᵗX | Xᵗy].
func normalEquations(time, values []float64) (*mat.Dense, error) {
	if len(time) == 0 {
		// no rows: XᵗX and Xᵗy are all zeros
		return mat.NewDense(2, 3, nil), nil
	}
	x := linalg.DesignMatrix(time)
	xt := linalg.Transpose(x)

	xtx, err := linalg.Multiply(xt, x)
	if err != nil {
		return nil, fmt.Errorf("build XtX: %w", err)
	}
	xty, err := linalg.MultiplyVec(xt, values)
	if err != nil {
		return nil, fmt.Errorf("build Xty: %w", err)
	}
	return linalg.Augment(xtx, xty)
}

// GaussJordan reduces a copy of the augmented matrix [A | b] and returns the
// last column of the reduced rows, i.e. the solution of A·x = b.
//
// The pivot of column i is the row in i..end holding the largest raw value in
// that column; magnitude is not considered, so a large negative entry never
// wins. A zero pivot divides through and leaves NaN/±Inf in the solution.
func GaussJordan(aug *mat.Dense) []float64 {
	m := mat.DenseCopyOf(aug)
	rows, cols := m.Dims()

	for i := 0; i < rows && i < cols-1; i++ {
		if p := pivotRow(m, i); p != i {
			swapRows(m, i, p)
		}
		scaleRow(m, i, m.At(i, i))
		eliminate(m, i)
	}

	solution := make([]float64, rows)
	for k := range solution {
		solution[k] = m.At(k, cols-1)
	}
	return solution
}

// pivotRow returns the row in col..rows-1 with the largest value in col.
func pivotRow(m *mat.Dense, col int) int {
	rows, _ := m.Dims()
	best := col
	maxVal := m.At(col, col)
	for r := col + 1; r < rows; r++ {
		if v := m.At(r, col); v > maxVal {
			maxVal = v
			best = r
		}
	}
	return best
}

func swapRows(m *mat.Dense, i, j int) {
	a, b := m.RawRowView(i), m.RawRowView(j)
	for k := range a {
		a[k], b[k] = b[k], a[k]
	}
}

func scaleRow(m *mat.Dense, row int, pivot float64) {
	r := m.RawRowView(row)
	for k := range r {
		r[k] /= pivot
	}
}

// eliminate clears column col in every row but the pivot row.
func eliminate(m *mat.Dense, col int) {
	rows, _ := m.Dims()
	pivot := m.RawRowView(col)
	for r := 0; r < rows; r++ {
		if r == col {
			continue
		}
		row := m.RawRowView(r)
		factor := row[col]
		floats.AddScaled(row[col:], -factor, pivot[col:])
		// exact zero, not the rounding residue of the subtraction
		row[col] = 0
	}
}
