// Package metrics exports frame statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tilescene.ai/internal/scene/traverse"
)

// FrameCollector is a scene frame observer feeding Prometheus collectors.
type FrameCollector struct {
	frames    prometheus.Counter
	failures  prometheus.Counter
	earlyExit prometheus.Counter
	drawCalls prometheus.Histogram
	frameTime prometheus.Histogram
	pending   prometheus.Gauge
	occluders prometheus.Gauge
}

// NewFrameCollector registers the frame collectors with reg, or with the
// default registry when reg is nil.
func NewFrameCollector(reg prometheus.Registerer) *FrameCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &FrameCollector{
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "scene_frames_total",
			Help: "The total number of drawn frames.",
		}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Name: "scene_renderable_failures_total",
			Help: "The total number of renderable draw failures.",
		}),
		earlyExit: f.NewCounter(prometheus.CounterOpts{
			Name: "scene_early_exit_frames_total",
			Help: "The number of frames that finished before the queue emptied.",
		}),
		drawCalls: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scene_draw_calls",
			Help:    "Renderable submissions per frame.",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10),
		}),
		frameTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scene_frame_seconds",
			Help:    "Time spent drawing one frame.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "scene_tiles_pending",
			Help: "Tiles visible after initialization in the last frame.",
		}),
		occluders: f.NewGauge(prometheus.GaugeOpts{
			Name: "scene_occluders_active",
			Help: "Occluders active in the last frame.",
		}),
	}
}

func (c *FrameCollector) ObserveFrame(st traverse.Stats, elapsed time.Duration) {
	c.frames.Inc()
	c.failures.Add(float64(st.Failures))
	if st.EarlyExit {
		c.earlyExit.Inc()
	}
	c.drawCalls.Observe(float64(st.DrawCalls))
	c.frameTime.Observe(elapsed.Seconds())
	c.pending.Set(float64(st.Pending))
	c.occluders.Set(float64(st.Occluders))
}
