package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when operand shapes are incompatible.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DesignMatrix builds the n×2 matrix whose row i is [1, time[i]].
// An empty time slice yields an empty matrix.
func DesignMatrix(time []float64) *mat.Dense {
	if len(time) == 0 {
		return &mat.Dense{}
	}
	x := mat.NewDense(len(time), 2, nil)
	for i, t := range time {
		x.Set(i, 0, 1)
		x.Set(i, 1, t)
	}
	return x
}

// Transpose returns a new matrix holding the transpose of m.
func Transpose(m mat.Matrix) *mat.Dense {
	if isEmpty(m) {
		return &mat.Dense{}
	}
	var t mat.Dense
	t.CloneFrom(m.T())
	return &t
}

// Multiply returns the dense product a·b. cols(a) must equal rows(b).
func Multiply(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br || isEmpty(a) || isEmpty(b) {
		return nil, fmt.Errorf("%w: cannot multiply %dx%d by %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	var p mat.Dense
	p.Mul(a, b)
	return &p, nil
}

// MultiplyVec returns the matrix-vector product a·v. cols(a) must equal len(v).
func MultiplyVec(a mat.Matrix, v []float64) (*mat.VecDense, error) {
	ar, ac := a.Dims()
	if ac != len(v) || isEmpty(a) {
		return nil, fmt.Errorf("%w: cannot multiply %dx%d by vector of length %d", ErrDimensionMismatch, ar, ac, len(v))
	}
	vec := mat.NewVecDense(len(v), append([]float64(nil), v...))
	var out mat.VecDense
	out.MulVec(a, vec)
	return &out, nil
}

// Augment concatenates a and b column-wise into [a | b]. Both must have the
// same number of rows.
func Augment(a mat.Matrix, b *mat.VecDense) (*mat.Dense, error) {
	ar, ac := a.Dims()
	if b == nil || isEmpty(a) || b.Len() != ar {
		n := 0
		if b != nil {
			n = b.Len()
		}
		return nil, fmt.Errorf("%w: cannot augment %dx%d with vector of length %d", ErrDimensionMismatch, ar, ac, n)
	}
	var aug mat.Dense
	aug.Augment(a, b)
	return &aug, nil
}

func isEmpty(m mat.Matrix) bool {
	r, c := m.Dims()
	return r == 0 || c == 0
}
