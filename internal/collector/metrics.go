package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"biocat_bridge/internal/coordinator"
)

// PollMetrics counts fetch cycles and their durations per coordinator.
type PollMetrics struct {
	cycles   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPollMetrics creates and registers the poll cycle metrics.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	m := &PollMetrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biocat_poll_cycles_total",
			Help: "Total fetch cycles per coordinator and result",
		}, []string{"coordinator", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biocat_poll_duration_seconds",
			Help:    "Time spent fetching from the cloud API",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"coordinator"}),
	}
	reg.MustRegister(m.cycles, m.duration)
	return m
}

// Hook returns a cycle hook that records one completed fetch cycle.
func (m *PollMetrics) Hook() coordinator.CycleHook {
	return func(name string, duration time.Duration, err error) {
		result := "success"
		if err != nil {
			result = "error"
		}
		m.cycles.WithLabelValues(name, result).Inc()
		m.duration.WithLabelValues(name).Observe(duration.Seconds())
	}
}
