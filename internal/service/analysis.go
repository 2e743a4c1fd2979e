package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cputemp_fitting/internal/fitting"
	"cputemp_fitting/internal/logger"
	"cputemp_fitting/internal/metrics"
	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/parser"
	"cputemp_fitting/internal/report"
	"cputemp_fitting/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

var (
	// ErrInvalidInput wraps parse and shape errors of the submitted log.
	ErrInvalidInput = errors.New("invalid temperature log")
	ErrRunNotFound  = errors.New("analysis run not found")
	ErrCoreNotFound = errors.New("core not found")
	ErrCoreFailed   = errors.New("core has no results")
)

// AnalysisOptions configures an AnalysisService. Zero values fall back to a
// sequential non-strict fitter, the parser's default step size, no metrics
// and a no-op logger.
type AnalysisOptions struct {
	Fitter   *fitting.Orchestrator
	StepSize int
	Metrics  *metrics.Recorder
	Log      *logger.Logger
}

type AnalysisService struct {
	runRepo   repository.RunRepo
	eventRepo repository.EventRepo
	fitter    *fitting.Orchestrator
	stepSize  int
	metrics   *metrics.Recorder
	log       *logger.Logger
}

func NewAnalysisService(runRepo repository.RunRepo, eventRepo repository.EventRepo, opts AnalysisOptions) *AnalysisService {
	s := &AnalysisService{
		runRepo:   runRepo,
		eventRepo: eventRepo,
		fitter:    opts.Fitter,
		stepSize:  opts.StepSize,
		metrics:   opts.Metrics,
		log:       opts.Log,
	}
	if s.fitter == nil {
		s.fitter = fitting.NewOrchestrator(fitting.Options{})
	}
	if s.stepSize <= 0 {
		s.stepSize = parser.DefaultStepSize
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

func (s *AnalysisService) Evaluate(ctx context.Context, p AnalyzeParams) (*models.AnalysisRun, error) {
	return s.evaluate(ctx, uuid.NewString(), p)
}

func (s *AnalysisService) evaluate(ctx context.Context, id string, p AnalyzeParams) (*models.AnalysisRun, error) {
	if p.Input == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidInput)
	}
	step := p.StepSize
	if step == 0 {
		step = s.stepSize
	}

	samples, err := parser.ParseRawTemps(p.Input, step)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	fits, err := s.fitter.Fit(ctx, samples)
	if err != nil {
		if errors.Is(err, fitting.ErrNoSamples) || errors.Is(err, fitting.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, err
	}

	return &models.AnalysisRun{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Source:    p.Source,
		StepSize:  step,
		Samples:   len(samples),
		CoreCount: len(fits),
		Strict:    s.fitter.Strict(),
		Cores:     fits,
	}, nil
}

// Analyze evaluates the input, stores the run and records its events and
// metrics. A run in which some cores failed is still stored and returned.
func (s *AnalysisService) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisRun, error) {
	start := time.Now()
	id := uuid.NewString()
	s.appendEvent(ctx, models.EventRunStarted, "analysis started", map[string]any{
		"run_id": id,
		"source": p.Source,
	})

	run, err := s.evaluate(ctx, id, p)
	if err == nil {
		s.metrics.ObserveFits(run.Cores)
		s.reportNonFinite(ctx, run)
		if serr := s.runRepo.Save(ctx, *run); serr != nil {
			err = fmt.Errorf("save run: %w", serr)
		}
	}
	if err != nil {
		s.metrics.ObserveRun(metrics.StatusFailed, time.Since(start))
		s.appendEvent(ctx, models.EventRunFailed, err.Error(), map[string]any{"run_id": id})
		s.log.Warnw("analysis_failed", "run_id", id, "source", p.Source, "err", err)
		return nil, err
	}

	failed := failedCores(run.Cores)
	status := metrics.StatusOK
	if len(failed) > 0 {
		status = metrics.StatusPartial
	}
	s.metrics.ObserveRun(status, time.Since(start))
	s.appendEvent(ctx, models.EventRunCompleted,
		fmt.Sprintf("fitted %d cores over %d samples", run.CoreCount, run.Samples),
		map[string]any{"run_id": id, "failed_cores": failed},
	)
	s.log.Infow("analysis_completed",
		"run_id", id, "source", p.Source, "samples", run.Samples, "cores", run.CoreCount,
		"failed_cores", len(failed), "elapsed", time.Since(start))
	return run, nil
}

func failedCores(fits []models.CoreFits) []int {
	failed := []int{}
	for _, f := range fits {
		if f.Err != "" {
			failed = append(failed, f.Core)
		}
	}
	return failed
}

// reportNonFinite logs and records one event per core whose results carry
// NaN or infinite coefficients.
func (s *AnalysisService) reportNonFinite(ctx context.Context, run *models.AnalysisRun) {
	for _, core := range run.Cores {
		var segments []int
		for i, r := range core.Results {
			if !r.Finite() {
				segments = append(segments, i)
			}
		}
		if len(segments) == 0 {
			continue
		}
		s.log.Warnw("non_finite_fit", "run_id", run.ID, "core", core.Core, "segments", segments)
		s.appendEvent(ctx, models.EventNonFiniteFit,
			fmt.Sprintf("core %d has %d non-finite segments", core.Core, len(segments)),
			map[string]any{"run_id": run.ID, "core": core.Core, "segments": segments},
		)
	}
}

// appendEvent never fails the caller; a lost event is only logged.
func (s *AnalysisService) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.Append(ctx, models.RunEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}

func (s *AnalysisService) GetRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	run, err := s.runRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListRuns clamps limit to [1, MaxListLimit]; non-positive means DefaultListLimit.
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.runRepo.List(ctx, limit)
}

func (s *AnalysisService) CoreReport(ctx context.Context, id string, core int) ([]string, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if core < 0 || core >= len(run.Cores) {
		return nil, fmt.Errorf("%w: %d of %d", ErrCoreNotFound, core, len(run.Cores))
	}
	fits := run.Cores[core]
	if fits.Err != "" {
		return nil, fmt.Errorf("%w: core %d: %s", ErrCoreFailed, core, fits.Err)
	}
	return report.Lines(fits.Results), nil
}
