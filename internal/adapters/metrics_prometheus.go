package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const metricsNamespace = "pangea"

// PrometheusMetricsAdapter collects run metrics on a private registry and
// writes them as a node-exporter textfile.
type PrometheusMetricsAdapter struct {
	registry *prometheus.Registry
	built    prometheus.Counter
	skipped  *prometheus.CounterVec
	aborted  *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration prometheus.Gauge
}

func NewPrometheusMetricsAdapter() *PrometheusMetricsAdapter {
	a := &PrometheusMetricsAdapter{
		registry: prometheus.NewRegistry(),
		built: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "projects",
			Name:      "built_total",
			Help:      "Projects constructed successfully.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "projects",
			Name:      "skipped_total",
			Help:      "Projects skipped, by reason.",
		}, []string{"kind"}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "projects",
			Name:      "aborted_total",
			Help:      "Projects whose construction failed, by reason.",
		}, []string{"kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "vcs",
			Name:      "retries_total",
			Help:      "Retried VCS transactions, by operation.",
		}, []string{"operation"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "factory",
			Name:      "duration_seconds",
			Help:      "Wall time of the last factory run.",
		}),
	}
	a.registry.MustRegister(a.built, a.skipped, a.aborted, a.retries, a.duration)
	return a
}

func (a *PrometheusMetricsAdapter) ObserveReport(report types.BatchReport, seconds float64) {
	a.built.Add(float64(report.Built))
	for _, record := range report.Skipped {
		a.skipped.WithLabelValues(record.Kind).Inc()
	}
	for _, record := range report.Aborted {
		a.aborted.WithLabelValues(record.Kind).Inc()
	}
	a.duration.Set(seconds)
}

func (a *PrometheusMetricsAdapter) ObserveRetry(operation string) {
	a.retries.WithLabelValues(operation).Inc()
}

func (a *PrometheusMetricsAdapter) Flush(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics file").
			WithCause(err)
	}
	return nil
}

var _ ports.MetricsPort = (*PrometheusMetricsAdapter)(nil)
