package host

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// pollMetrics holds Prometheus metrics for readings polls.
type pollMetrics struct {
	readings        *prometheus.CounterVec   // By component and status (success/failure)
	readingsLatency *prometheus.HistogramVec // By component
	polls           prometheus.Counter
	components      prometheus.Gauge // Currently running components
}

func newPollMetrics(reg prometheus.Registerer) (*pollMetrics, error) {
	m := &pollMetrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diagsensors",
			Subsystem: "host",
			Name:      "readings_total",
			Help:      "Total number of readings requests",
		}, []string{"component", "status"}),

		readingsLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "diagsensors",
			Subsystem: "host",
			Name:      "readings_duration_seconds",
			Help:      "Readings request duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
		}, []string{"component"}),

		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diagsensors",
			Subsystem: "host",
			Name:      "polls_total",
			Help:      "Total number of completed poll rounds",
		}),

		components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diagsensors",
			Subsystem: "host",
			Name:      "components",
			Help:      "Number of running components",
		}),
	}

	for _, c := range []prometheus.Collector{m.readings, m.readingsLatency, m.polls, m.components} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering host metrics")
		}
	}
	return m, nil
}

func (m *pollMetrics) recordReadings(name string, seconds float64, err error) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	m.readings.WithLabelValues(name, status).Inc()
	m.readingsLatency.WithLabelValues(name).Observe(seconds)
}
