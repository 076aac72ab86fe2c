// internal/pipeline/growth-triggers/handler_test.go
package growthtriggers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"martech-enrichment/internal/common/cache"
	"martech-enrichment/internal/common/logger"
)

func newTestHandler(t *testing.T, modelURL string) (*Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &Config{
		Model:                   "gpt-4o",
		Temperature:             0.2,
		Timeout:                 15 * time.Second,
		MaxAttempts:             1,
		CacheTTL:                48 * time.Hour,
		ContextTokenLimit:       1000,
		MaxTriggers:             3,
		PromptPricePerToken:     0.000005,
		CompletionPricePerToken: 0.000015,
	}
	log := logger.NewNoOpLogger()

	h := NewHandler(
		cfg,
		NewGatherer(cfg.ContextTokenLimit, log),
		NewTriggerCache(cache.NewFromClient(client), cfg.CacheTTL, NewCacheStats(), log),
		NewInvoker(cfg, "test-key", modelURL, log),
		NewValidator(cfg.MaxTriggers, log),
		log,
	)
	return h, mr
}

// modelStub serves a fixed chat-completion content and counts invocations.
func modelStub(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestExecute_GeneratesAndMemoizes(t *testing.T) {
	srv, calls := modelStub(t, `[{"title":"Hiring surge","description":"Jobs page lists 12 roles"}]`)
	h, mr := newTestHandler(t, srv.URL)
	domains := []string{"example.invalid"}

	first := h.Execute(context.Background(), domains)
	assert.Equal(t, []GrowthTrigger{{Title: "Hiring surge", Description: "Jobs page lists 12 roles"}}, first)
	assert.Equal(t, int32(1), calls.Load())

	second := h.Execute(context.Background(), domains)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second request should be served from cache")

	assert.Len(t, mr.Keys(), 1)
}

func TestExecute_EmptyDomains(t *testing.T) {
	srv, calls := modelStub(t, `[]`)
	h, _ := newTestHandler(t, srv.URL)

	triggers := h.Execute(context.Background(), []string{})

	assert.Empty(t, triggers)
	assert.Equal(t, int32(0), calls.Load())
}

func TestExecute_MalformedOutputIsNotCached(t *testing.T) {
	srv, calls := modelStub(t, `the model replied in prose`)
	h, mr := newTestHandler(t, srv.URL)
	domains := []string{"example.invalid"}

	first := h.Execute(context.Background(), domains)
	assert.Empty(t, first)
	assert.Empty(t, mr.Keys())

	// A later request must reach the model again instead of being pinned
	// to the bad outcome.
	second := h.Execute(context.Background(), domains)
	assert.Empty(t, second)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecute_OverCapOutputDegradesToEmpty(t *testing.T) {
	srv, _ := modelStub(t, `[
		{"title":"a","description":"1"},
		{"title":"b","description":"2"},
		{"title":"c","description":"3"},
		{"title":"d","description":"4"}
	]`)
	h, mr := newTestHandler(t, srv.URL)

	triggers := h.Execute(context.Background(), []string{"example.invalid"})

	assert.Empty(t, triggers)
	assert.Empty(t, mr.Keys())
}

func TestExecute_ModelFailureDegradesToEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "boom", "type": "server_error"},
		})
	}))
	t.Cleanup(srv.Close)

	h, mr := newTestHandler(t, srv.URL)

	triggers := h.Execute(context.Background(), []string{"example.invalid"})

	assert.Empty(t, triggers)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, mr.Keys())
}

func TestExecute_EmptyValidListIsCached(t *testing.T) {
	srv, calls := modelStub(t, `[]`)
	h, _ := newTestHandler(t, srv.URL)
	domains := []string{"example.invalid"}

	first := h.Execute(context.Background(), domains)
	assert.Empty(t, first)

	second := h.Execute(context.Background(), domains)
	assert.Empty(t, second)
	assert.Equal(t, int32(1), calls.Load(), "a valid empty list is a memoizable outcome")
}

func TestBuildPrompt_EmbedsContext(t *testing.T) {
	prompt := buildPrompt(`{"domains":["example.com"]}`)

	assert.Contains(t, prompt, `{"domains":["example.com"]}`)
	assert.Contains(t, prompt, "JSON array")
}
