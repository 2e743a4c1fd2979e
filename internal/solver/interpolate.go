package solver

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when no segment starts at the requested index.
var ErrIndexOutOfRange = errors.New("interpolation index out of range")

// Interpolate returns the line through (time[i], values[i]) and
// (time[i+1], values[i+1]). Equal time values give an infinite slope.
func Interpolate(i int, time, values []float64) (Coefficients, error) {
	if len(time) != len(values) {
		return Coefficients{}, fmt.Errorf("%w: %d time values, %d readings", ErrDimensionMismatch, len(time), len(values))
	}
	if i < 0 || i >= len(time)-1 {
		return Coefficients{}, fmt.Errorf("%w: index %d with %d points", ErrIndexOutOfRange, i, len(time))
	}

	slope := (values[i+1] - values[i]) / (time[i+1] - time[i])
	return Coefficients{
		Intercept: values[i] - slope*time[i],
		Slope:     slope,
	}, nil
}
