package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinkOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_links_operations_total",
		Help: "Asset link operations by operation and outcome",
	}, []string{"operation", "outcome"})

	ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_links_validation_rejections_total",
		Help: "Asset link mutations rejected, by violated rule",
	}, []string{"rule"})

	CycleCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asset_links_cycle_check_duration_seconds",
		Help:    "Time spent searching for a path back to the parent before a parent-child link is written",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	CycleCheckVisitedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asset_links_cycle_check_visited_nodes",
		Help:    "Nodes expanded by a single cycle check",
		Buckets: prometheus.ExponentialBuckets(1, 4, 9),
	})

	TreeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asset_links_tree_nodes",
		Help:    "Nodes materialized by a children tree view",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	CatalogBatchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asset_links_catalog_batch_fallbacks_total",
		Help: "Catalog batch lookups that failed and were retried item by item",
	})

	CatalogCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_links_catalog_cache_lookups_total",
		Help: "Asset catalog cache lookups by result",
	}, []string{"result"})
)
