package models

import "time"

// AnalysisRun is a persisted execution of the fitting pipeline over one input.
type AnalysisRun struct {
	ID        string
	CreatedAt time.Time
	Source    string // file name or client supplied label
	StepSize  int    // seconds between samples
	Samples   int
	CoreCount int
	Strict    bool
	Cores     []CoreFits // empty when only the header was loaded
}
