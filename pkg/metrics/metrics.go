// Package metrics exposes Prometheus metrics for the perception
// pipeline, grounded on the promauto/Namespace+Subsystem pattern used
// by PossumXI-Asgard_Arobi's Pricilla/internal/metrics/prometheus.go,
// scaled down to this pipeline's frame/cluster/zone/tick counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every pipeline gauge/counter.
type Metrics struct {
	FramesTotal          *prometheus.CounterVec
	ClustersEmitted      prometheus.Gauge
	TrackedPoints        prometheus.Gauge
	Devices              prometheus.Gauge
	ZoneTransitionsTotal *prometheus.CounterVec
	SmoothingTicksTotal  prometheus.Counter
	AutomaskCompleted    *prometheus.CounterVec
	TransformerUnready   prometheus.Counter
	PublishFailuresTotal *prometheus.CounterVec
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get returns the process-wide metrics instance, constructing it on
// first use.
func Get() *Metrics {
	globalOnce.Do(func() {
		global = newMetrics()
	})
	return global
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lidar",
		Name:      "frames_total",
		Help:      "Total scan frames processed, by device serial.",
	}, []string{"serial"})

	m.ClustersEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lidar",
		Name:      "clusters_emitted",
		Help:      "Number of clusters emitted on the most recent frame.",
	})

	m.TrackedPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lidar",
		Name:      "tracked_points",
		Help:      "Current number of smoothed tracked points, ready or not.",
	})

	m.Devices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lidar",
		Name:      "devices",
		Help:      "Current number of configured devices.",
	})

	m.ZoneTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lidar",
		Name:      "zone_transitions_total",
		Help:      "Zone active/inactive transitions, by zone and direction.",
	}, []string{"zone", "direction"})

	m.SmoothingTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lidar",
		Subsystem: "pipeline",
		Name:      "smoothing_ticks_total",
		Help:      "Total smoother tick() invocations.",
	})

	m.AutomaskCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lidar",
		Subsystem: "pipeline",
		Name:      "automask_completed_total",
		Help:      "Total automask sampler completions, by device serial.",
	}, []string{"serial"})

	m.TransformerUnready = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lidar",
		Subsystem: "pipeline",
		Name:      "transformer_unready_total",
		Help:      "Frames skipped because the quad transformer had no ROI configured.",
	})

	m.PublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lidar",
		Subsystem: "pipeline",
		Name:      "publish_failures_total",
		Help:      "Transport publish failures, by topic.",
	}, []string{"topic"})

	return m
}
