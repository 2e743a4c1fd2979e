package fitting

import (
	"errors"
	"fmt"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/solver"
)

var (
	ErrNoSamples         = errors.New("no samples to fit")
	ErrDimensionMismatch = solver.ErrDimensionMismatch
)

// TimeVector returns the step of every sample, in order.
func TimeVector(samples []models.Sample) []float64 {
	time := make([]float64, len(samples))
	for i, s := range samples {
		time[i] = float64(s.Step)
	}
	return time
}

// CoreSeries returns the readings of one core across all samples.
func CoreSeries(samples []models.Sample, core int) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Readings[core]
	}
	return values
}

// validate checks that the series is non-empty and rectangular and returns the
// number of cores.
func validate(samples []models.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	numCores := len(samples[0].Readings)
	for i, s := range samples[1:] {
		if len(s.Readings) != numCores {
			return 0, fmt.Errorf("%w: sample %d (step %d) has %d readings, expected %d",
				ErrDimensionMismatch, i+1, s.Step, len(s.Readings), numCores)
		}
	}
	return numCores, nil
}
