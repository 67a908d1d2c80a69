// Package metrics exposes Prometheus instrumentation for the report pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	JobsSubmitted prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobsInFlight  prometheus.Gauge
	BuildDuration prometheus.Histogram
}

// New registers the report job metrics on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storewatch_report_jobs_submitted_total",
			Help: "Report jobs accepted for execution",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storewatch_report_jobs_completed_total",
			Help: "Report jobs that reached the Complete state",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storewatch_report_jobs_failed_total",
			Help: "Report jobs that reached the Error state",
		}),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storewatch_report_jobs_in_flight",
			Help: "Report jobs currently queued or running",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storewatch_report_build_seconds",
			Help:    "Wall time spent building one report artifact",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.JobsSubmitted, m.JobsCompleted, m.JobsFailed, m.JobsInFlight, m.BuildDuration)
	return m
}
