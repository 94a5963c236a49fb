// Package metrics provides Prometheus metrics for analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the analysis metrics. A nil *Manager is valid and records
// nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	locationsAnalysed *prometheus.CounterVec
	channelsAnalysed  *prometheus.CounterVec
	channelFailures   *prometheus.CounterVec
	locationDuration  prometheus.Histogram
}

// NewManager creates a manager. Metrics register on the default registerer
// unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "soilmm",
		subsystem:        "analysis",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.locationsAnalysed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "locations_total",
		Help:      "Locations analysed, by outcome",
	}, []string{"outcome"})

	m.channelsAnalysed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "channels_total",
		Help:      "Channels analysed, by stage",
	}, []string{"stage"})

	m.channelFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "channel_failures_total",
		Help:      "Channels skipped because of sparse or undefined data, by stage",
	}, []string{"stage"})

	m.locationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "location_duration_seconds",
		Help:      "Wall time of one location analysis",
		Buckets:   m.histogramBuckets,
	})
}

// RecordChannel counts one analysed channel of the given stage.
func (m *Manager) RecordChannel(stage string) {
	if m == nil || !m.enabled {
		return
	}
	m.channelsAnalysed.WithLabelValues(stage).Inc()
}

// RecordChannelFailure counts one channel that produced no result.
func (m *Manager) RecordChannelFailure(stage string) {
	if m == nil || !m.enabled {
		return
	}
	m.channelFailures.WithLabelValues(stage).Inc()
}

// RecordLocation counts a finished location and observes its duration.
func (m *Manager) RecordLocation(d time.Duration, err error) {
	if m == nil || !m.enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.locationsAnalysed.WithLabelValues(outcome).Inc()
	m.locationDuration.Observe(d.Seconds())
}
