// internal/pipeline/growth-triggers/validator.go
package growthtriggers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	pipeerrors "martech-enrichment/internal/common/errors"
	"martech-enrichment/internal/common/logger"
)

// The schema is deliberately all-or-nothing: one extra field, one missing
// field, or one entry over the cap rejects the whole array. Partially
// malformed lists are never delivered.
const triggerSchemaTemplate = `{
  "type": "array",
  "maxItems": %d,
  "items": {
    "type": "object",
    "required": ["title", "description"],
    "additionalProperties": false,
    "properties": {
      "title": {"type": "string"},
      "description": {"type": "string"}
    }
  }
}`

// Validator enforces the strict growth-trigger output schema on raw model
// text.
type Validator struct {
	schema gojsonschema.JSONLoader
	logger logger.Logger
}

func NewValidator(maxTriggers int, log logger.Logger) *Validator {
	return &Validator{
		schema: gojsonschema.NewStringLoader(fmt.Sprintf(triggerSchemaTemplate, maxTriggers)),
		logger: log,
	}
}

// Validate parses raw as JSON and checks it against the trigger schema.
// Failures return a MALFORMED_OUTPUT error; callers must not cache that
// outcome so a later, better-formed response can still populate the cache.
func (v *Validator) Validate(raw string) ([]GrowthTrigger, error) {
	document := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(v.schema, document)
	if err != nil {
		return nil, pipeerrors.NewMalformedOutputError(err.Error())
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, pipeerrors.NewMalformedOutputError(strings.Join(details, "; "))
	}

	var triggers []GrowthTrigger
	if err := json.Unmarshal([]byte(raw), &triggers); err != nil {
		return nil, pipeerrors.NewMalformedOutputError(err.Error())
	}

	return triggers, nil
}
