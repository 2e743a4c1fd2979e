// Package fitting slices a multi-core temperature series into per-core
// vectors and drives the regression and interpolation solvers over each.
//
// Cores never share state, so they are fitted concurrently on a bounded
// worker pool. A failing core does not stop the others.
package fitting
