// Package parser turns raw per-core temperature logs into Samples.
//
// Each non-blank line holds one reading per core, every reading followed by a
// °C unit marker:
//
//	+61.0°C +63.0°C +50.0°C +58.0°C
//
// Lines are assigned consecutive time steps stepSize seconds apart.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"cputemp_fitting/internal/models"
)

// DefaultStepSize is the sampling period of the sensor logs, in seconds.
const DefaultStepSize = 30

const maxLineBytes = 1 << 20

var (
	ErrInvalidStepSize   = errors.New("step size must be positive")
	ErrMalformedReading  = errors.New("malformed temperature reading")
	ErrDimensionMismatch = errors.New("inconsistent number of core readings")
)

// unitMarker also matches "Â°C", which is what a UTF-8 degree sign looks like
// after a Latin-1 round trip.
var unitMarker = regexp.MustCompile(`Â?°C\s*`)

// ParseRawTemps reads every line of r into a Sample.
func ParseRawTemps(r io.Reader, stepSize int) ([]models.Sample, error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStepSize, stepSize)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		samples []models.Sample
		lineNo  int
		step    int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		readings, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(samples) > 0 && len(readings) != len(samples[0].Readings) {
			return nil, fmt.Errorf("line %d: %w: got %d, expected %d",
				lineNo, ErrDimensionMismatch, len(readings), len(samples[0].Readings))
		}

		samples = append(samples, models.Sample{Step: step, Readings: readings})
		step += stepSize
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read temperatures: %w", err)
	}
	return samples, nil
}

func parseLine(line string) ([]float64, error) {
	fields := unitMarker.Split(line, -1)
	readings := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedReading, f)
		}
		readings = append(readings, v)
	}
	return readings, nil
}
