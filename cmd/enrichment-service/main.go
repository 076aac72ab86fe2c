// cmd/enrichment-service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"martech-enrichment/internal/common/cache"
	"martech-enrichment/internal/common/config"
	"martech-enrichment/internal/common/logger"
	"martech-enrichment/internal/common/observability"
	gt "martech-enrichment/internal/pipeline/growth-triggers"
	insightparser "martech-enrichment/internal/pipeline/insight-parser"
	"martech-enrichment/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting enrichment service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, tracingEndpoint(cfg))
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *cache.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = cache.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		// The cache is a performance optimization; the pipeline degrades to
		// live generation when reads fail, so a dead Redis is not fatal.
		zapLog.Warn("redis unavailable, continuing without warm cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Growth-trigger pipeline ---
	pipelineCfg := gt.LoadConfig()
	pipelineCfg.Model = cfg.OpenAI.Model
	pipelineCfg.Temperature = cfg.OpenAI.Temperature
	pipelineCfg.Timeout = config.GetDuration(config.GetPipelineConfig(cfg, gt.PipelineName).Timeout)
	pipelineCfg.MaxAttempts = config.GetPipelineConfig(cfg, gt.PipelineName).MaxRetries
	pipelineCfg.CacheTTL = time.Duration(cfg.Enrichment.CacheTTLHours) * time.Hour
	pipelineCfg.ContextTokenLimit = cfg.Enrichment.ContextTokenLimit
	pipelineCfg.MaxTriggers = cfg.Enrichment.MaxTriggers
	pipelineCfg.PromptPricePerToken = cfg.Enrichment.PromptPricePerToken
	pipelineCfg.CompletionPricePerToken = cfg.Enrichment.CompletionPricePerToken

	triggerHandler := gt.NewHandler(
		pipelineCfg,
		gt.NewGatherer(pipelineCfg.ContextTokenLimit, log),
		gt.NewTriggerCache(redisClient, pipelineCfg.CacheTTL, gt.NewCacheStats(), log),
		gt.NewInvoker(pipelineCfg, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, log),
		gt.NewValidator(pipelineCfg.MaxTriggers, log),
		log,
	)

	// --- HTTP API ---
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	pipelineRegistry, err := registry.LoadRegistry("configs/pipelines.json")
	if err != nil {
		zapLog.Warn("pipeline registry unavailable", zap.Error(err))
		pipelineRegistry = &registry.PipelineRegistry{Version: "unknown"}
	}

	mux.HandleFunc("/api/pipelines", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pipelineRegistry)
	})

	triggersEnabled := config.IsPipelineEnabled(cfg, gt.PipelineName)

	mux.HandleFunc("/api/growth-triggers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !triggersEnabled {
			http.Error(w, "pipeline disabled", http.StatusServiceUnavailable)
			return
		}

		var req struct {
			Domains []string `json:"domains"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		start := time.Now()
		triggers := triggerHandler.Execute(r.Context(), req.Domains)
		obs.RecordRequest(r.Context(), gt.PipelineName, "ok")
		obs.RecordDuration(r.Context(), gt.PipelineName, time.Since(start))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"growthTriggers": triggers,
		})
	})

	mux.HandleFunc("/api/insight/normalize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unreadable request body", http.StatusBadRequest)
			return
		}

		// The normalizer is total: whatever shape the body has, the
		// response is a well-formed canonical insight.
		parsed := insightparser.Parse(string(body))
		obs.RecordRequest(r.Context(), "insight-parser", "ok")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(parsed)
	})

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Enrichment service stopped gracefully")
}

func tracingEndpoint(cfg *config.Config) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	return cfg.Tracing.JaegerEndpoint
}
