// Package metrics exposes Prometheus instrumentation for the calculator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "emi_"

	ResultSuccess   = "success"
	ResultError     = "error"
	ResultInvalid   = "invalid"
	ResultForbidden = "forbidden"

	ResultEligible   = "eligible"
	ResultIneligible = "ineligible"
)

// Metrics bundles calculator metrics. A nil *Metrics is a no-op.
type Metrics struct {
	EligibilityChecks  *prometheus.CounterVec
	Calculations       *prometheus.CounterVec
	CalculationLatency *prometheus.HistogramVec
	ScheduleMonths     prometheus.Histogram
	Exports            *prometheus.CounterVec
	ExportLatency      *prometheus.HistogramVec
}

// New constructs metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		EligibilityChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "eligibility_checks_total",
				Help: "Total eligibility checks by outcome",
			},
			[]string{"result"},
		),
		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculations_total",
				Help: "Total schedule calculations by result",
			},
			[]string{"result"},
		),
		CalculationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_latency_seconds",
				Help:    "Schedule calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		ScheduleMonths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "schedule_months",
			Help:    "Number of rows in generated schedules",
			Buckets: []float64{6, 12, 36, 60, 120, 240, 360},
		}),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total schedule exports by format and result",
			},
			[]string{"format", "result"},
		),
		ExportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Schedule export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}

	reg.MustRegister(
		m.EligibilityChecks,
		m.Calculations,
		m.CalculationLatency,
		m.ScheduleMonths,
		m.Exports,
		m.ExportLatency,
	)
	return m
}

// ObserveEligibility records one eligibility check outcome.
func (m *Metrics) ObserveEligibility(result string) {
	if m == nil {
		return
	}
	m.EligibilityChecks.WithLabelValues(result).Inc()
}

// ObserveCalculation records a calculation result, its duration and, on
// success, the number of schedule rows.
func (m *Metrics) ObserveCalculation(result string, duration time.Duration, months int) {
	if m == nil {
		return
	}
	if result == "" {
		result = ResultSuccess
	}
	m.Calculations.WithLabelValues(result).Inc()
	m.CalculationLatency.WithLabelValues(result).Observe(duration.Seconds())
	if result == ResultSuccess {
		m.ScheduleMonths.Observe(float64(months))
	}
}

// ObserveExport records an export by format.
func (m *Metrics) ObserveExport(format, result string, duration time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.Exports.WithLabelValues(format, result).Inc()
	m.ExportLatency.WithLabelValues(format).Observe(duration.Seconds())
}
