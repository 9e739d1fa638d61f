package vectorstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts similarity searches by result.
	// Labels: result (success, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopd",
			Subsystem: "vectorstore",
			Name:      "searches_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"result"},
	)

	// SearchDuration tracks similarity search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shopd",
			Subsystem: "vectorstore",
			Name:      "search_duration_seconds",
			Help:      "Duration of similarity searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RebuildsTotal counts index rebuilds by result.
	// Labels: result (success, error)
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopd",
			Subsystem: "vectorstore",
			Name:      "rebuilds_total",
			Help:      "Total number of index rebuilds",
		},
		[]string{"result"},
	)

	// RebuildDuration tracks full rebuild latency. Rebuilds embed the
	// whole catalog, so buckets reach into minutes.
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shopd",
			Subsystem: "vectorstore",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full index rebuilds in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// DocumentsIndexed reports the current index size.
	DocumentsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shopd",
			Subsystem: "vectorstore",
			Name:      "documents_indexed",
			Help:      "Number of documents in the product index",
		},
	)
)
