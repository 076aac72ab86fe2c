// internal/pipeline/growth-triggers/invoker.go
package growthtriggers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	pipeerrors "martech-enrichment/internal/common/errors"
	"martech-enrichment/internal/common/logger"
	"martech-enrichment/internal/common/metrics"
)

// Invoker calls the chat-completion API with a bounded retry budget.
// Only rate-limit responses are retried; any other failure aborts
// immediately so the pipeline can degrade to an empty result.
type Invoker struct {
	client openai.Client
	config *Config
	logger logger.Logger
}

func NewInvoker(cfg *Config, apiKey, baseURL string, log logger.Logger) *Invoker {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// The SDK retries on its own by default; the pipeline owns the retry
	// policy, so that is disabled here.
	opts = append(opts, option.WithMaxRetries(0))

	return &Invoker{
		client: openai.NewClient(opts...),
		config: cfg,
		logger: log,
	}
}

// Invoke sends prompt to the model and returns the raw response text with
// token usage. Up to MaxAttempts tries, linear backoff of
// 1s * attemptNumber between rate-limited attempts.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, Usage, error) {
	var lastErr error

	// A misconfigured attempt budget still gets one try, so lastErr is
	// always set before the exhaustion return.
	maxAttempts := i.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := i.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(i.config.Model),
			Temperature: openai.Float(i.config.Temperature),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				metrics.ModelInvocations.WithLabelValues(PipelineName, "failed").Inc()
				return "", Usage{}, pipeerrors.NewGenerationFailedError(fmt.Errorf("no choices in response"))
			}
			metrics.ModelInvocations.WithLabelValues(PipelineName, "ok").Inc()
			usage := Usage{
				Prompt:     resp.Usage.PromptTokens,
				Completion: resp.Usage.CompletionTokens,
				Total:      resp.Usage.TotalTokens,
			}
			return resp.Choices[0].Message.Content, usage, nil
		}

		if ctx.Err() != nil {
			return "", Usage{}, pipeerrors.NewGenerationTimeoutError(ctx.Err().Error())
		}

		if !isRateLimited(err) {
			metrics.ModelInvocations.WithLabelValues(PipelineName, "failed").Inc()
			return "", Usage{}, pipeerrors.NewGenerationFailedError(err)
		}

		metrics.ModelInvocations.WithLabelValues(PipelineName, "rate_limited").Inc()
		lastErr = err
		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		i.logger.Warn("rate limited, backing off", map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
		})

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", Usage{}, pipeerrors.NewGenerationTimeoutError(ctx.Err().Error())
		}
	}

	return "", Usage{}, pipeerrors.NewRateLimitedError(lastErr.Error())
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
