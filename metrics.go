package exprtree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Metrics
// ============================================================

var (
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exprtree_parse_total",
		Help: "Expressions parsed, by result",
	}, []string{"result"})

	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exprtree_edits_total",
		Help: "Session edits applied, by kind",
	}, []string{"kind"})

	undoDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exprtree_undo_depth",
		Help: "Undo snapshots held by the most recently edited session",
	})

	layoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exprtree_layout_duration_seconds",
		Help:    "Duration of tree layout",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)
