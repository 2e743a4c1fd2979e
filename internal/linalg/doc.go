// Package linalg provides the dense matrix primitives used to build and
// reduce the least-squares normal equations.
//
// All functions allocate fresh results; inputs are never aliased or mutated.
// Shape mismatches are reported as ErrDimensionMismatch rather than the
// panics gonum raises for them.
package linalg
