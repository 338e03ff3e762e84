package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "php_analyser_parse_seconds",
		Help:    "Time spent parsing a PHP source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "php_analyser_files_indexed_total",
		Help: "Total number of PHP files parsed into declarations.",
	})

	FilesReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "php_analyser_files_reused_total",
		Help: "Total number of PHP files whose declarations were loaded from the declaration store.",
	})

	DeclarationsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "php_analyser_declarations_indexed_total",
		Help: "Total number of declarations added to the index.",
	}, []string{"kind"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "php_analyser_cache_hits_total",
		Help: "Total number of cache lookups that found an entry.",
	}, []string{"backend"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "php_analyser_cache_misses_total",
		Help: "Total number of cache lookups that found nothing.",
	}, []string{"backend"})

	ReflectionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "php_analyser_reflections_created_total",
		Help: "Total number of reflection objects built by the factories.",
	}, []string{"kind"})

	NarrowingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "php_analyser_narrowing_seconds",
		Help:    "Time spent computing narrowed types for a condition.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
