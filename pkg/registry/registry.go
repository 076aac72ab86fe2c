// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRegistry reads the pipeline registry JSON from path.
func LoadRegistry(path string) (*PipelineRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg PipelineRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the pipeline with the given id, or nil.
func (r *PipelineRegistry) Find(id string) *Pipeline {
	for i := range r.Pipelines {
		if r.Pipelines[i].ID == id {
			return &r.Pipelines[i]
		}
	}
	return nil
}
