// Package solver fits straight lines y = intercept + slope*x to temperature
// samples: a global least-squares regression solved through the normal
// equations, and exact two-point interpolants between adjacent samples.
//
// Degenerate inputs are not trapped. A singular normal-equations system or a
// zero-width interpolation interval yields NaN or ±Inf coefficients.
package solver
