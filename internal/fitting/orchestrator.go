package fitting

import (
	"context"
	"errors"
	"fmt"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/solver"

	"golang.org/x/sync/errgroup"
)

var (
	ErrSingularSystem     = errors.New("singular least-squares system")
	ErrDegenerateInterval = errors.New("degenerate interpolation interval")
)

// CoreError ties a fitting failure to the core it happened on.
type CoreError struct {
	Core int
	Err  error
}

func (e *CoreError) Error() string { return fmt.Sprintf("core %d: %v", e.Core, e.Err) }

func (e *CoreError) Unwrap() error { return e.Err }

// Options tune an Orchestrator.
type Options struct {
	// Workers bounds how many cores are fitted at once; values below 1 mean one.
	Workers int
	// Strict turns non-finite coefficients into ErrSingularSystem or
	// ErrDegenerateInterval instead of returning them.
	Strict bool
}

// Orchestrator fits every core of a sample series.
type Orchestrator struct {
	workers int
	strict  bool
}

func NewOrchestrator(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{workers: workers, strict: opts.Strict}
}

// Strict reports whether non-finite coefficients are treated as errors.
func (o *Orchestrator) Strict() bool { return o.strict }

type outcome struct {
	results []models.FitResult
	err     error
}

// Run fits every core and returns its results keyed by core index. Cores that
// fail are left out of the map and reported together as *CoreError values
// joined into the returned error.
func (o *Orchestrator) Run(ctx context.Context, samples []models.Sample) (map[int][]models.FitResult, error) {
	outcomes, err := o.fitAll(ctx, samples)
	if err != nil {
		return nil, err
	}

	byCore := make(map[int][]models.FitResult, len(outcomes))
	var errs []error
	for c, oc := range outcomes {
		if oc.err != nil {
			errs = append(errs, &CoreError{Core: c, Err: oc.err})
			continue
		}
		byCore[c] = oc.results
	}
	return byCore, errors.Join(errs...)
}

// Fit is Run for callers that keep per-core failures alongside the results.
// The returned slice is ordered by core index.
func (o *Orchestrator) Fit(ctx context.Context, samples []models.Sample) ([]models.CoreFits, error) {
	outcomes, err := o.fitAll(ctx, samples)
	if err != nil {
		return nil, err
	}

	fits := make([]models.CoreFits, len(outcomes))
	for c, oc := range outcomes {
		fits[c] = models.CoreFits{Core: c, Results: oc.results}
		if oc.err != nil {
			fits[c].Err = oc.err.Error()
		}
	}
	return fits, nil
}

func (o *Orchestrator) fitAll(ctx context.Context, samples []models.Sample) ([]outcome, error) {
	numCores, err := validate(samples)
	if err != nil {
		return nil, err
	}
	time := TimeVector(samples)

	outcomes := make([]outcome, numCores)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for c := 0; c < numCores; c++ {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := o.fitCore(time, CoreSeries(samples, c))
			outcomes[c] = outcome{results: results, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// fitCore returns one Regression over the whole span followed by the n-1
// Interpolation segments in increasing time order.
func (o *Orchestrator) fitCore(time, values []float64) ([]models.FitResult, error) {
	n := len(time)
	results := make([]models.FitResult, 0, n)

	coef, err := solver.LeastSquares(time, values)
	if err != nil {
		return nil, err
	}
	reg := models.FitResult{
		ValidFrom: time[0],
		ValidTo:   time[n-1],
		Intercept: coef.Intercept,
		Slope:     coef.Slope,
		Kind:      models.Regression,
	}
	if o.strict && !reg.Finite() {
		return nil, fmt.Errorf("%w: intercept=%v slope=%v", ErrSingularSystem, reg.Intercept, reg.Slope)
	}
	results = append(results, reg)

	for j := 0; j < n-1; j++ {
		coef, err := solver.Interpolate(j, time, values)
		if err != nil {
			return nil, err
		}
		seg := models.FitResult{
			ValidFrom: time[j],
			ValidTo:   time[j+1],
			Intercept: coef.Intercept,
			Slope:     coef.Slope,
			Kind:      models.Interpolation,
		}
		if o.strict && !seg.Finite() {
			return nil, fmt.Errorf("%w: [%v, %v) slope=%v", ErrDegenerateInterval, seg.ValidFrom, seg.ValidTo, seg.Slope)
		}
		results = append(results, seg)
	}
	return results, nil
}
