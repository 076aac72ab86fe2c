// internal/pipeline/growth-triggers/models.go
package growthtriggers

// WebsiteContext carries the raw signals gathered for a domain set. It is
// built fresh per request and never persisted; only its hash and the
// downstream result reach the cache.
type WebsiteContext struct {
	Domains []string `json:"domains"`
	Tech    []string `json:"tech"`
	Copy    string   `json:"copy"`
	Jobs    []string `json:"jobs"`
}

// GrowthTrigger is a single model-generated recommendation.
type GrowthTrigger struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Usage is the token accounting reported by the model API.
type Usage struct {
	Prompt     int64 `json:"prompt"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
}
