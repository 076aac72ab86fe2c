// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_lookups_total",
			Help: "Total number of enrichment cache lookups",
		},
		[]string{"pipeline"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Total number of enrichment cache hits",
		},
		[]string{"pipeline"},
	)

	ModelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_model_tokens_total",
			Help: "Total model tokens consumed, by kind (prompt, completion)",
		},
		[]string{"pipeline", "kind"},
	)

	ModelCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_model_cost_usd_total",
			Help: "Estimated model spend in USD",
		},
		[]string{"pipeline"},
	)

	ModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_model_invocations_total",
			Help: "Model invocation attempts, by outcome (ok, rate_limited, failed)",
		},
		[]string{"pipeline", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "enrichment_request_duration_seconds",
			Help: "Duration of enrichment requests in seconds",
		},
		[]string{"pipeline"},
	)
)
