// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig                 `mapstructure:"app"`
	Server     ServerConfig              `mapstructure:"server"`
	Database   DatabaseConfig            `mapstructure:"database"`
	OpenAI     OpenAIConfig              `mapstructure:"openai"`
	Enrichment EnrichmentConfig          `mapstructure:"enrichment"`
	Pipelines  map[string]PipelineConfig `mapstructure:"pipelines"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	Tracing    TracingConfig             `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig holds settings for the chat-completion API.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// EnrichmentConfig holds settings shared by the enrichment pipelines.
type EnrichmentConfig struct {
	CacheTTLHours           int     `mapstructure:"cache_ttl_hours"`
	ContextTokenLimit       int     `mapstructure:"context_token_limit"`
	MaxTriggers             int     `mapstructure:"max_triggers"`
	PromptPricePerToken     float64 `mapstructure:"prompt_price_per_token"`     // USD
	CompletionPricePerToken float64 `mapstructure:"completion_price_per_token"` // USD
}

// PipelineConfig holds the core settings applicable to every pipeline.
type PipelineConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"` // milliseconds
	MaxRetries int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig holds settings for the Jaeger trace exporter.
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
