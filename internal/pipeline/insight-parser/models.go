// internal/pipeline/insight-parser/models.go
package insightparser

// Action is one recommended next step from an insight payload.
type Action struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Reasoning string                 `json:"reasoning"`
	Benefit   string                 `json:"benefit,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Persona is a buyer persona from an insight payload. The enumerable
// fields are never omitted; missing values are backfilled with the literal
// string "unknown" so the UI can always render a fixed field set.
type Persona struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name,omitempty"`
	Demographics string                 `json:"demographics"`
	Needs        string                 `json:"needs"`
	Goals        string                 `json:"goals"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
}

// ParsedInsight is the canonical record every upstream payload shape is
// folded into before it reaches the UI.
type ParsedInsight struct {
	Actions  []Action  `json:"actions"`
	Evidence string    `json:"evidence"`
	Personas []Persona `json:"personas"`
	Degraded bool      `json:"degraded"`
}
