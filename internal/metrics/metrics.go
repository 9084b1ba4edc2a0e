// Package metrics declares the Prometheus collectors for search, enrichment
// and LLM usage. Collectors register on the default registry and are
// exposed by the API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchRequests counts searches by result: ok, empty, invalid, error.
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_search_requests_total",
		Help: "Similarity searches by result.",
	}, []string{"result"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipe_search_duration_seconds",
		Help:    "Latency of validated similarity searches.",
		Buckets: prometheus.DefBuckets,
	})

	DetailFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_search_detail_fetch_failures_total",
		Help: "Candidate detail lookups that failed and were dropped.",
	})

	// EnrichmentItems counts processed items by outcome and failing stage.
	EnrichmentItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_enrichment_items_total",
		Help: "Enrichment items by outcome.",
	}, []string{"outcome", "stage"})

	// LLMCalls counts provider calls by operation and status.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_calls_total",
		Help: "LLM provider calls by operation and status.",
	}, []string{"operation", "status"})

	LLMCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cost_usd_total",
		Help: "Priced LLM spend in USD by model family.",
	}, []string{"model_family"})
)
