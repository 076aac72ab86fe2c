// internal/pipeline/growth-triggers/config.go
package growthtriggers

import "time"

type Config struct {
	Model                   string
	Temperature             float64
	Timeout                 time.Duration
	MaxAttempts             int
	CacheTTL                time.Duration
	ContextTokenLimit       int
	MaxTriggers             int
	PromptPricePerToken     float64
	CompletionPricePerToken float64
}

func LoadConfig() *Config {
	return &Config{
		Model:                   "gpt-4o",
		Temperature:             0.2,
		Timeout:                 30 * time.Second,
		MaxAttempts:             3,
		CacheTTL:                48 * time.Hour,
		ContextTokenLimit:       1000,
		MaxTriggers:             3,
		PromptPricePerToken:     0.000005,
		CompletionPricePerToken: 0.000015,
	}
}
