// Package metrics exposes Prometheus instrumentation for puffd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vapefi/puffd/pkg/tracking"
)

var (
	FramesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puffd_frames_processed_total",
			Help: "Frames run through the puff pipeline, by session state",
		},
		[]string{"state"},
	)

	Detections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puffd_detections_total",
			Help: "Positive puff results, by outcome (fired, cooldown, not_counting)",
		},
		[]string{"outcome"},
	)

	Confidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "puffd_confidence",
			Help:    "Confidence of scored frames",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "puffd_active_sessions",
			Help: "Number of active tracking sessions",
		},
	)

	PuffsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "puffd_puffs_recorded_total",
			Help: "Puffs accepted by the rewards backend",
		},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puffd_sink_errors_total",
			Help: "Puffs not recorded, by reason",
		},
		[]string{"reason"},
	)
)

// Observe records one frame analysis.
func Observe(a tracking.Analysis) {
	FramesProcessed.WithLabelValues(a.State.String()).Inc()

	// Frames still filling the history window carry no score
	if a.State != tracking.StateTracking || a.Reason == tracking.ReasonBuildingHistory {
		return
	}
	Confidence.Observe(float64(a.Confidence))

	if !a.IsPuff {
		return
	}
	switch {
	case a.Fired:
		Detections.WithLabelValues("fired").Inc()
	case a.Suppressed != "":
		Detections.WithLabelValues(a.Suppressed).Inc()
	}
}
