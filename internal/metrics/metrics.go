// Package metrics holds the Prometheus collectors updated by the animation
// loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the animation loop counters, labelled by pane.
type Metrics struct {
	Ticks         *prometheus.CounterVec
	Redraws       *prometheus.CounterVec
	Unchanged     prometheus.Counter
	Malformed     *prometheus.CounterVec
	RenderSeconds *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alcviz_ticks_total",
			Help: "Animation ticks, by pane.",
		}, []string{"pane"}),
		Redraws: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alcviz_redraws_total",
			Help: "Frames rendered and presented, by pane.",
		}, []string{"pane"}),
		Unchanged: f.NewCounter(prometheus.CounterOpts{
			Name: "alcviz_topology_unchanged_total",
			Help: "Topology ticks skipped because the snapshot did not change.",
		}),
		Malformed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alcviz_malformed_snapshots_total",
			Help: "Ticks skipped because the input file could not be parsed, by pane.",
		}, []string{"pane"}),
		RenderSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alcviz_render_seconds",
			Help:    "Time spent laying out and rendering one frame, by pane.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"pane"}),
	}
}
