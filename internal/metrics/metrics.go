package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "training_scheduler"

// Metrics счётчики операций планировщика. Нулевой указатель допустим и ничего не пишет.
type Metrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	conflicts    *prometheus.CounterVec
	appointments *prometheus.CounterVec
}

// New регистрирует коллекторы в reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of scheduling operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of scheduling operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conflicts_total",
				Help:      "Total number of conflicting slots reported",
			},
			[]string{"operation"},
		),
		appointments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "appointments_written_total",
				Help:      "Total number of appointments created or moved",
			},
			[]string{"operation"},
		),
	}
}

// ObserveOperation учитывает завершённую операцию
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) AddConflicts(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflicts.WithLabelValues(operation).Add(float64(n))
}

func (m *Metrics) AddAppointments(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.appointments.WithLabelValues(operation).Add(float64(n))
}
