package desktop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
)

var (
	metricFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "frames_presented_total",
		Help:      "Frames handed to the backend.",
	})
	metricFullFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "frames_full_repaint_total",
		Help:      "Frames presented with every row repainted.",
	})
	metricBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "output_bytes_total",
		Help:      "Bytes of escape output emitted by the renderer.",
	})
	metricRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "rows_total",
		Help:      "Rows considered by the renderer, by outcome.",
	}, []string{"outcome"})
	metricFrameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tilewm",
		Name:      "frame_duration_seconds",
		Help:      "Time spent in one desktop cycle.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	metricEditsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "layout_edits_refused_total",
		Help:      "Layout edits not applied for lack of space.",
	}, []string{"action"})
	metricDefunct = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tilewm",
		Name:      "terminals_defunct_total",
		Help:      "Terminal occupants whose child output ended.",
	})
	metricOccupants = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tilewm",
		Name:      "occupants",
		Help:      "Occupants currently placed or held.",
	})
	metricInputDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tilewm",
		Name:      "input_dropped",
		Help:      "Input transitions discarded because the queue was full.",
	})
)

func recordFrame(stats compositor.DiffStats, seconds float64) {
	metricFrames.Inc()
	if stats.Full {
		metricFullFrames.Inc()
	}
	if stats.Bytes > 0 {
		metricBytes.Add(float64(stats.Bytes))
	}
	metricRows.WithLabelValues("repainted").Add(float64(stats.RowsRepainted))
	metricRows.WithLabelValues("cleared").Add(float64(stats.RowsCleared))
	metricRows.WithLabelValues("skipped").Add(float64(stats.RowsSkipped))
	metricFrameSeconds.Observe(seconds)
}

func recordRefused(action Action) {
	metricEditsRefused.WithLabelValues(string(action)).Inc()
}

func recordDefunct() {
	metricDefunct.Inc()
}
