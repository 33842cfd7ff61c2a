package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyindex_parse_seconds",
		Help:    "Time spent parsing a single Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyindex_parse_errors_total",
		Help: "Total number of Python files rejected as syntactically invalid.",
	})

	WalkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyindex_walk_seconds",
		Help:    "Time spent building the object tree of a whole project.",
		Buckets: prometheus.DefBuckets,
	})

	ObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyindex_objects_total",
		Help: "Total number of structural objects built, by kind.",
	}, []string{"kind"})

	CollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyindex_collisions_total",
		Help: "Total number of same-name sibling definitions stored as alt-objects.",
	})

	FilesIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyindex_files_indexed_total",
		Help: "Total number of Python files turned into module objects.",
	})

	WatchRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyindex_watch_rebuilds_total",
		Help: "Total number of watch-triggered rebuilds, by outcome.",
	}, []string{"outcome"})

	StoreWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyindex_store_write_seconds",
		Help:    "Latency for persisting one indexed project.",
		Buckets: prometheus.DefBuckets,
	})
)
