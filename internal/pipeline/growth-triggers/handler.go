// internal/pipeline/growth-triggers/handler.go
package growthtriggers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pipeerrors "martech-enrichment/internal/common/errors"
	"martech-enrichment/internal/common/logger"
	"martech-enrichment/internal/common/metrics"
	"martech-enrichment/internal/common/observability"
)

const (
	PipelineName = "growth-triggers"
)

// Handler orchestrates the growth-trigger pipeline:
// gather context -> derive key -> cache lookup -> model call -> validate
// -> populate cache. Every failure mode degrades to an empty list; callers
// treat an empty list as "no triggers available", never as an error.
type Handler struct {
	config    *Config
	gatherer  *Gatherer
	cache     *TriggerCache
	invoker   *Invoker
	validator *Validator
	logger    logger.Logger
	tracer    trace.Tracer
}

func NewHandler(config *Config, gatherer *Gatherer, cache *TriggerCache, invoker *Invoker, validator *Validator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		gatherer:  gatherer,
		cache:     cache,
		invoker:   invoker,
		validator: validator,
		logger: log.With(map[string]interface{}{
			"pipeline": PipelineName,
		}),
		tracer: observability.Tracer(PipelineName),
	}
}

// Execute runs the pipeline for a domain set and returns 0-3 triggers.
func (h *Handler) Execute(ctx context.Context, domains []string) []GrowthTrigger {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(PipelineName).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	ctx, span := h.tracer.Start(ctx, "growthTriggers",
		trace.WithAttributes(attribute.StringSlice("domains", domains)))
	defer span.End()

	log := h.logger.With(map[string]interface{}{
		"requestId": uuid.New().String(),
		"domains":   domains,
	})

	if len(domains) == 0 {
		log.Warn("no domains provided", nil)
		return []GrowthTrigger{}
	}

	contextText, err := h.gatherer.Gather(ctx, domains)
	if err != nil {
		log.WithError(err).Error("context gathering failed", nil)
		return []GrowthTrigger{}
	}

	cacheKey := DeriveKey(contextText)
	if cached, ok := h.cache.Get(ctx, cacheKey); ok {
		return cached
	}

	rawText, usage, err := h.invoker.Invoke(ctx, buildPrompt(contextText))
	if err != nil {
		log.WithError(err).Error("model invocation failed", map[string]interface{}{
			"errorCode": string(pipeerrors.CodeOf(err)),
		})
		return []GrowthTrigger{}
	}

	triggers, err := h.validator.Validate(rawText)
	if err != nil {
		// Not cached: a malformed response should be retried on the next
		// request, not memoized as "no triggers".
		log.WithError(err).Error("model output rejected", map[string]interface{}{
			"errorCode": string(pipeerrors.CodeOf(err)),
		})
		return []GrowthTrigger{}
	}

	h.cache.Set(ctx, cacheKey, triggers)

	cost := float64(usage.Prompt)*h.config.PromptPricePerToken +
		float64(usage.Completion)*h.config.CompletionPricePerToken
	metrics.ModelTokens.WithLabelValues(PipelineName, "prompt").Add(float64(usage.Prompt))
	metrics.ModelTokens.WithLabelValues(PipelineName, "completion").Add(float64(usage.Completion))
	metrics.ModelCostUSD.WithLabelValues(PipelineName).Add(cost)

	log.Info("growth triggers generated", map[string]interface{}{
		"cacheKey":         cacheKey,
		"usage":            usage,
		"estimatedCostUsd": cost,
		"hitRate":          h.cache.Stats().HitRate(),
		"triggerCount":     len(triggers),
	})

	return triggers
}

func buildPrompt(contextText string) string {
	var parts []string

	parts = append(parts, "You are a growth-trigger analyst for marketing technology teams.")
	parts = append(parts, "Given the following website context, list up to 3 growth triggers.")
	parts = append(parts, `Respond with a JSON array of {"title": string, "description": string}.`)
	parts = append(parts, fmt.Sprintf("Context: %s", contextText))

	return strings.Join(parts, "\n")
}
