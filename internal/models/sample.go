package models

import (
	"strconv"
	"strings"
)

// Sample is one time step of per-core temperature readings.
type Sample struct {
	Step     int       `json:"step"`     // time index, seconds from the first reading
	Readings []float64 `json:"readings"` // °C, one per core
}

// String renders the sample as (step, [core_0, core_1, ... core_{n-1}]).
func (s Sample) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strconv.Itoa(s.Step))
	b.WriteString(", [")
	for i, r := range s.Readings {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(r, 'f', -1, 64))
	}
	b.WriteString("])")
	return b.String()
}
