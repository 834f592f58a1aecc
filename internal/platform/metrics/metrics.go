// Package metrics expone métricas Prometheus del motor de regímenes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas de la app. Un *Metrics nil es válido: todos
// los métodos son no-op (tests de servicio sin registry).
type Metrics struct {
	RegimensCreated   prometheus.Counter
	RegimensCompleted prometheus.Counter
	BatchesGenerated  prometheus.Counter
	TreatmentsGiven   prometheus.Counter
	AdvanceDuration   prometheus.Histogram
	DueQueryDuration  *prometheus.HistogramVec
	VaccinationsGiven prometheus.Counter
	TestsPerformed    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New crea y registra las métricas en reg. Con reg nil usa un registry
// propio (cada router tiene el suyo, así los tests no chocan).
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		RegimensCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_regimens_created_total",
			Help: "Total regimens created",
		}),
		RegimensCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_regimens_completed_total",
			Help: "Total regimens moved to completed by the lifecycle",
		}),
		BatchesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_treatment_batches_generated_total",
			Help: "Total treatment batches generated",
		}),
		TreatmentsGiven: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_treatments_given_total",
			Help: "Total treatments marked as given",
		}),
		AdvanceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medical_regimen_advance_duration_seconds",
			Help:    "Duration of a locked regimen advance",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		DueQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medical_due_query_duration_seconds",
			Help:    "Duration of due window queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind", "query"}),
		VaccinationsGiven: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_vaccinations_given_total",
			Help: "Total vaccinations marked as given",
		}),
		TestsPerformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medical_tests_performed_total",
			Help: "Total tests marked as performed",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RegimensCreated,
		m.RegimensCompleted,
		m.BatchesGenerated,
		m.TreatmentsGiven,
		m.AdvanceDuration,
		m.DueQueryDuration,
		m.VaccinationsGiven,
		m.TestsPerformed,
	)

	return m
}

// Handler devuelve el handler HTTP de /metrics para este registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRegimenCreated() {
	if m == nil {
		return
	}
	m.RegimensCreated.Inc()
}

func (m *Metrics) IncRegimenCompleted() {
	if m == nil {
		return
	}
	m.RegimensCompleted.Inc()
}

func (m *Metrics) IncBatchGenerated() {
	if m == nil {
		return
	}
	m.BatchesGenerated.Inc()
}

func (m *Metrics) IncTreatmentGiven() {
	if m == nil {
		return
	}
	m.TreatmentsGiven.Inc()
}

func (m *Metrics) IncVaccinationGiven() {
	if m == nil {
		return
	}
	m.VaccinationsGiven.Inc()
}

func (m *Metrics) IncTestPerformed() {
	if m == nil {
		return
	}
	m.TestsPerformed.Inc()
}

func (m *Metrics) ObserveAdvance(d time.Duration) {
	if m == nil {
		return
	}
	m.AdvanceDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveDueQuery(kind, query string, d time.Duration) {
	if m == nil {
		return
	}
	m.DueQueryDuration.WithLabelValues(kind, query).Observe(d.Seconds())
}
