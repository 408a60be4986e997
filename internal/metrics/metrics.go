// Package metrics records per-operation counters and timings for a
// pedl-deploy run and writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pedl_deploy"

// Operation names recorded by the deployer.
const (
	OpDeploy      = "deploy"
	OpDelete      = "delete"
	OpStack       = "stack"
	OpNetwork     = "network"
	OpEmptyBucket = "empty_bucket"
)

// Recorder holds the registry and the collectors of one run.
type Recorder struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

// NewRecorder creates a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Stack operations by outcome.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of stack operations, including waits.",
			Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"operation"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful operation.",
		}, []string{"operation"}),
		now: time.Now,
	}
	r.registry.MustRegister(r.operations, r.duration, r.lastSuccess)
	return r
}

// Observe records one operation that started at start and ended with err.
func (r *Recorder) Observe(operation string, start time.Time, err error) {
	end := r.now()
	r.duration.WithLabelValues(operation).Observe(end.Sub(start).Seconds())

	result := "success"
	if err != nil {
		result = "error"
	} else {
		r.lastSuccess.WithLabelValues(operation).Set(float64(end.Unix()))
	}
	r.operations.WithLabelValues(operation, result).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
