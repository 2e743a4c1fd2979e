package parser

import (
	"errors"
	"strings"
	"testing"

	"cputemp_fitting/internal/models"
)

func TestParseRawTemps(t *testing.T) {
	input := "+61.0°C +63.0°C +50.0°C +58.0°C\n" +
		"+80.0°C +81.0°C +68.0°C +77.0°C\n" +
		"\n" +
		"62.5Â°C 64.0Â°C 53.0Â°C 59.0Â°C\n"

	got, err := ParseRawTemps(strings.NewReader(input), DefaultStepSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.Sample{
		{Step: 0, Readings: []float64{61, 63, 50, 58}},
		{Step: 30, Readings: []float64{80, 81, 68, 77}},
		{Step: 60, Readings: []float64{62.5, 64, 53, 59}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Step != want[i].Step {
			t.Fatalf("sample %d: step %d, want %d", i, got[i].Step, want[i].Step)
		}
		if len(got[i].Readings) != len(want[i].Readings) {
			t.Fatalf("sample %d: %d readings, want %d", i, len(got[i].Readings), len(want[i].Readings))
		}
		for c := range want[i].Readings {
			if got[i].Readings[c] != want[i].Readings[c] {
				t.Fatalf("sample %d core %d: got %v, want %v", i, c, got[i].Readings[c], want[i].Readings[c])
			}
		}
	}
}

func TestParseRawTemps_CustomStep(t *testing.T) {
	got, err := ParseRawTemps(strings.NewReader("1°C\n2°C\n3°C"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range got {
		if s.Step != i*5 {
			t.Fatalf("sample %d: step %d, want %d", i, s.Step, i*5)
		}
	}
}

func TestParseRawTemps_Errors(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		step    int
		wantErr error
		wantMsg string
	}{
		{"zero step", "1°C", 0, ErrInvalidStepSize, ""},
		{"bad number", "61.0°C sixty°C", 30, ErrMalformedReading, "line 1"},
		{"core count changes", "61.0°C 62.0°C\n\n63.0°C", 30, ErrDimensionMismatch, "line 3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRawTemps(strings.NewReader(tc.input), tc.step)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected %q in %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestParseRawTemps_Empty(t *testing.T) {
	got, err := ParseRawTemps(strings.NewReader("\n  \n"), DefaultStepSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no samples, got %d", len(got))
	}
}

func TestSampleString(t *testing.T) {
	s := models.Sample{Step: 60, Readings: []float64{61, 63.5}}
	if got := s.String(); got != "(60, [61, 63.5])" {
		t.Fatalf("unexpected String(): %q", got)
	}
}
