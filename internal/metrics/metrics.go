// Package metrics exposes Prometheus collectors for analysis runs.
package metrics

import (
	"net/http"
	"time"

	"cputemp_fitting/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the status label.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

const namespace = "cputemp"

// Recorder owns a private registry. A nil *Recorder records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	fits      *prometheus.CounterVec
	nonFinite *prometheus.CounterVec
	duration  prometheus.Histogram
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"status"}),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Fitted segments by kind.",
		}, []string{"kind"}),
		nonFinite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "non_finite_fits_total",
			Help:      "Fitted segments with NaN or infinite coefficients, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of parse and fit for one run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	r.registry.MustRegister(r.runs, r.fits, r.nonFinite, r.duration)
	return r
}

// ObserveRun records the outcome and duration of one run.
func (r *Recorder) ObserveRun(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(d.Seconds())
}

// ObserveFits counts every fitted segment of a run.
func (r *Recorder) ObserveFits(fits []models.CoreFits) {
	if r == nil {
		return
	}
	for _, f := range fits {
		for _, res := range f.Results {
			kind := res.Kind.String()
			r.fits.WithLabelValues(kind).Inc()
			if !res.Finite() {
				r.nonFinite.WithLabelValues(kind).Inc()
			}
		}
	}
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
