package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for resident history recording.
type Metrics struct {
	RecordsPersisted *prometheus.CounterVec
	PersistFailures  *prometheus.CounterVec
	UpdatesSkipped   prometheus.Counter
	Rejected         prometheus.Counter
	PublishFailures  prometheus.Counter
	RecordDuration   prometheus.Histogram
}

// New registers the history metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "copro_history_records_persisted_total",
			Help: "Total number of history records persisted, by action",
		}, []string{"action"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "copro_history_persist_failures_total",
			Help: "Total number of history records that could not be persisted, by action",
		}, []string{"action"}),
		UpdatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "copro_history_updates_skipped_total",
			Help: "Total number of resident updates that produced no change",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "copro_history_rejected_total",
			Help: "Total number of history requests rejected for mismatched snapshots",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "copro_history_publish_failures_total",
			Help: "Total number of persisted history records that could not be published",
		}),
		RecordDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "copro_history_record_duration_seconds",
			Help:    "Duration of diff, describe and persist for one history record",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// IncPersisted records a successful save.
func (m *Metrics) IncPersisted(action string) {
	m.RecordsPersisted.WithLabelValues(action).Inc()
}

// IncPersistFailures records a failed save.
func (m *Metrics) IncPersistFailures(action string) {
	m.PersistFailures.WithLabelValues(action).Inc()
}

// IncUpdatesSkipped records an update with an empty diff.
func (m *Metrics) IncUpdatesSkipped() {
	m.UpdatesSkipped.Inc()
}

// IncRejected records a precondition rejection.
func (m *Metrics) IncRejected() {
	m.Rejected.Inc()
}

// IncPublishFailures records a failed publish after a successful save.
func (m *Metrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}

// ObserveRecord records the duration of one RecordUpdate/RecordDelete call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecord(start time.Time) {
	m.RecordDuration.Observe(time.Since(start).Seconds())
}
