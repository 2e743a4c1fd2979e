package models

import "math"

// FitKind tells a whole-span regression apart from a two-point interpolant.
type FitKind int

const (
	Regression FitKind = iota
	Interpolation
)

// String returns the short machine name used in storage and JSON.
func (k FitKind) String() string {
	switch k {
	case Regression:
		return "REGRESSION"
	case Interpolation:
		return "INTERPOLATION"
	default:
		return "UNKNOWN"
	}
}

// ParseFitKind is the inverse of String. ok is false for unknown names.
func ParseFitKind(s string) (k FitKind, ok bool) {
	switch s {
	case "REGRESSION":
		return Regression, true
	case "INTERPOLATION":
		return Interpolation, true
	default:
		return 0, false
	}
}

// FitResult is one fitted segment y = Intercept + Slope*x valid on [ValidFrom, ValidTo).
type FitResult struct {
	ValidFrom float64
	ValidTo   float64
	Intercept float64
	Slope     float64
	Kind      FitKind
}

// Eval evaluates the fitted line at x.
func (r FitResult) Eval(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// Finite reports whether both coefficients are finite numbers.
func (r FitResult) Finite() bool {
	return !math.IsNaN(r.Intercept) && !math.IsInf(r.Intercept, 0) &&
		!math.IsNaN(r.Slope) && !math.IsInf(r.Slope, 0)
}

// CoreFits is the ordered output for a single core: one Regression followed by
// the Interpolation segments in increasing time order. Err is set when the
// core's fit failed; Results is then empty.
type CoreFits struct {
	Core    int
	Results []FitResult
	Err     string
}
