package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contactmerge"

// MetricsController collects the statistics of triage runs. It owns its
// registry so a one-shot run only exports its own series.
type MetricsController struct {
	registry *prometheus.Registry

	ticketCount     *prometheus.CounterVec
	ticketSkipped   *prometheus.CounterVec
	ticketFailed    *prometheus.CounterVec
	runCount        *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRunFinished prometheus.Gauge
}

func NewMetricsController() *MetricsController {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsController{
		registry: reg,
		ticketCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "processed_total",
			Help:      "Contact form tickets processed, by decision",
		}, []string{"action"}),
		ticketSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "skipped_total",
			Help:      "Contact form tickets skipped, by reason",
		}, []string{"reason"}),
		ticketFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "failed_total",
			Help:      "Contact form tickets whose action failed, by decision",
		}, []string{"action"}),
		runCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Triage runs, by status",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of triage runs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastRunFinished: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_finished_timestamp_seconds",
			Help:      "Unix time the last triage run finished",
		}),
	}
}

func (m *MetricsController) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsController) ObserveTicket(action string, skipped string, failed bool) {
	if skipped != "" {
		m.ticketSkipped.With(prometheus.Labels{"reason": skipped}).Inc()
		return
	}

	m.ticketCount.With(prometheus.Labels{"action": action}).Inc()
	if failed {
		m.ticketFailed.With(prometheus.Labels{"action": action}).Inc()
	}
}

func (m *MetricsController) ObserveRun(duration time.Duration, aborted bool) {
	status := "completed"
	if aborted {
		status = "aborted"
	}
	m.runCount.With(prometheus.Labels{"status": status}).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.lastRunFinished.SetToCurrentTime()
}
