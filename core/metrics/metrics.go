package metrics

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels of the records counter.
const (
	OutcomeCreated    = "created"
	OutcomeUpdated    = "updated"
	OutcomeUnchanged  = "unchanged"
	OutcomeDuplicate  = "duplicate"
	OutcomeUnresolved = "unresolved"
)

// Recorder collects loader metrics on its own registry, so several recorders
// can coexist in one process (tests, the server and a CLI run).
type Recorder struct {
	registry *prometheus.Registry

	records      *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
}

// NewRecorder creates a recorder with every loader metric registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "loader",
				Name:      "records_total",
				Help:      "Input records by step, table and outcome",
			},
			[]string{"job", "step", "table", "outcome"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "loader",
				Name:      "step_duration_seconds",
				Help:      "Duration of one step from extract to the last update",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
			},
			[]string{"job", "step"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "loader",
				Name:      "step_failures_total",
				Help:      "Steps that returned an error",
			},
			[]string{"job", "step"},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "loader",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful job run",
			},
			[]string{"job"},
		),
	}
}

// Records adds n records with the given outcome.
func (r *Recorder) Records(job, step, table, outcome string, n int) {
	if n <= 0 {
		return
	}
	r.records.WithLabelValues(job, step, table, outcome).Add(float64(n))
}

// StepDone observes a finished step. A non-nil err counts as a failure.
func (r *Recorder) StepDone(job, step string, took time.Duration, err error) {
	r.stepDuration.WithLabelValues(job, step).Observe(took.Seconds())
	if err != nil {
		r.stepFailures.WithLabelValues(job, step).Inc()
	}
}

// JobSucceeded stamps the last successful run of a job.
func (r *Recorder) JobSucceeded(job string, at time.Time) {
	r.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Handler serves the registry on a Fiber route.
func (r *Recorder) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
