// pkg/registry/schema.go
package registry

// PipelineRegistry describes the enrichment pipelines this service exposes.
// Consumers use it for discovery and for validating their requests before
// calling the API.
type PipelineRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Pipelines   []Pipeline `json:"pipelines"`
}

type Pipeline struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Endpoint     string                 `json:"endpoint"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
	Cached       bool                   `json:"cached"`
	Tags         []string               `json:"tags"`
}
