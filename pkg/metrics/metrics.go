// pkg/metrics/metrics.go
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects operation counters for one bpkg run. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	downloadBytes prometheus.Counter
	updates       *prometheus.CounterVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpkg_operations_total",
				Help: "Package operations by kind and result",
			},
			[]string{"op", "result"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bpkg_operation_duration_seconds",
				Help:    "Duration of package operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bpkg_download_bytes_total",
				Help: "Bytes received from download servers",
			},
		),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpkg_update_outcomes_total",
				Help: "Bulk update outcomes by status",
			},
			[]string{"status"},
		),
	}

	r.registry.MustRegister(r.operations, r.durations, r.downloadBytes, r.updates)
	return r
}

// Operation records one finished operation started at start
func (r *Recorder) Operation(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.operations.WithLabelValues(op, result).Inc()
	r.durations.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Downloaded adds n received bytes
func (r *Recorder) Downloaded(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.downloadBytes.Add(float64(n))
}

// UpdateOutcome counts one bulk update result
func (r *Recorder) UpdateOutcome(status string) {
	if r == nil {
		return
	}
	r.updates.WithLabelValues(status).Inc()
}

// WriteFile writes every metric in the text exposition format to path
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

