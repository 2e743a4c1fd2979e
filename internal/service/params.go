package service

import (
	"io"
	"time"
)

// AnalyzeParams describes one analysis request.
type AnalyzeParams struct {
	Source   string    // file name or client label, stored with the run
	StepSize int       // seconds between lines; 0 means the configured default
	Input    io.Reader // raw temperature log
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "RUN_STARTED", "RUN_COMPLETED", "RUN_FAILED", "NON_FINITE_FIT"
}
