package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conflict kinds reported by the ledger. Position covers both the grid slot and
// the finishing order; index is a unique violation caught by the store itself.
const (
	ConflictPosition = "position"
	ConflictDriver   = "driver"
	ConflictBatch    = "batch"
	ConflictIndex    = "index"
)

// Metrics provides observability for the championship module.
// Tracks ledger writes, invariant rejections, cascade volume and view latency.
type Metrics struct {
	ResultsWritten  *prometheus.CounterVec
	ResultConflicts *prometheus.CounterVec
	CascadeDeleted  *prometheus.CounterVec
	ViewDuration    *prometheus.HistogramVec
}

// New registers the module metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the module metrics with reg. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResultsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paddock_results_written_total",
			Help: "Total number of result rows written, by operation",
		}, []string{"op"}),
		ResultConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paddock_result_conflicts_total",
			Help: "Total number of result writes rejected by a per-race uniqueness rule",
		}, []string{"kind"}),
		CascadeDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paddock_cascade_deleted_total",
			Help: "Total number of rows removed by cascading deletes, by entity",
		}, []string{"entity"}),
		ViewDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paddock_view_duration_seconds",
			Help:    "Duration of aggregation views",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"view"}),
	}
}

// AddResultsWritten records n result rows written by op ("insert" or "update").
func (m *Metrics) AddResultsWritten(op string, n int) {
	m.ResultsWritten.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) IncrementConflict(kind string) {
	m.ResultConflicts.WithLabelValues(kind).Inc()
}

// AddCascadeDeleted records rows removed from entity ("race" or "result").
func (m *Metrics) AddCascadeDeleted(entity string, n int) {
	m.CascadeDeleted.WithLabelValues(entity).Add(float64(n))
}

// ObserveView records the duration of an aggregation view.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveView(view string, start time.Time) {
	m.ViewDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}
