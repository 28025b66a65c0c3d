package reminder

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports sweep telemetry to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	blocks        *prometheus.CounterVec
	lastSweep     prometheus.Gauge
}

// NewMetrics registers sweep metrics on reg (the default registerer when nil)
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quietblocks",
			Subsystem: "reminder",
			Name:      "sweeps_total",
			Help:      "Reminder sweeps by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quietblocks",
			Subsystem: "reminder",
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one reminder sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quietblocks",
			Subsystem: "reminder",
			Name:      "blocks_total",
			Help:      "Blocks handled by sweeps, by outcome.",
		}, []string{"outcome"}),
		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quietblocks",
			Subsystem: "reminder",
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep.",
		}),
	}

	collectors := []prometheus.Collector{m.sweeps, m.sweepDuration, m.blocks, m.lastSweep}
	for i, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, fmt.Errorf("register reminder metric: %w", err)
			}
			collectors[i] = are.ExistingCollector
		}
	}
	// reuse collectors that were registered by an earlier instance
	m.sweeps = collectors[0].(*prometheus.CounterVec)
	m.sweepDuration = collectors[1].(prometheus.Histogram)
	m.blocks = collectors[2].(*prometheus.CounterVec)
	m.lastSweep = collectors[3].(prometheus.Gauge)

	return m, nil
}

func (m *Metrics) observe(s *Summary, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	if err != nil {
		m.sweeps.WithLabelValues("failed").Inc()
		return
	}
	m.sweeps.WithLabelValues("ok").Inc()
	m.lastSweep.Set(float64(s.Timestamp.Unix()))

	m.blocks.WithLabelValues("processed").Add(float64(s.Processed))
	m.blocks.WithLabelValues("sent").Add(float64(s.Sent))
	m.blocks.WithLabelValues("expired").Add(float64(s.Expired))
	m.blocks.WithLabelValues("skipped").Add(float64(s.Skipped))
	m.blocks.WithLabelValues("error").Add(float64(s.Errors))
}
