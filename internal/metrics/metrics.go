// Package metrics exposes scan progress as Prometheus collectors.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

// Metrics holds the collectors updated by the scan loop.
type Metrics struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	hostsTotal    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enumlive_probes_total",
				Help: "Total number of completed host probes",
			},
			[]string{"status"},
		),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enumlive_probe_duration_seconds",
				Help:    "Time spent probing a host across all schemes",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"status"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enumlive_probes_inflight",
			Help: "Number of probes currently running",
		}),
		hostsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enumlive_hosts_total",
			Help: "Number of hosts queued for this scan",
		}),
	}

	collectors := []prometheus.Collector{
		m.probesTotal,
		m.probeDuration,
		m.inFlight,
		m.hostsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	// Both label values exist from the start so a scrape never misses a series.
	for _, s := range []domain.LiveStatus{domain.StatusLive, domain.StatusDown} {
		m.probesTotal.WithLabelValues(string(s))
	}

	return m, nil
}

// Observe records one completed probe.
func (m *Metrics) Observe(r domain.ProbeResult) {
	status := string(r.Status)
	m.probesTotal.WithLabelValues(status).Inc()
	m.probeDuration.WithLabelValues(status).Observe(r.Duration.Seconds())
}

func (m *Metrics) SetTotal(n int) {
	m.hostsTotal.Set(float64(n))
}

func (m *Metrics) SetInFlight(n int64) {
	m.inFlight.Set(float64(n))
}
