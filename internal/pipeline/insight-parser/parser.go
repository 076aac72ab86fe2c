// internal/pipeline/insight-parser/parser.go
package insightparser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key priority lists for the shapes the upstream insight service has
// produced over time. Resolution tries each known shape in order and falls
// back to empty/"unknown" defaults; no shape is ever a decode error.
var (
	wrapperKeys  = []string{"result", "report", "insight"}
	evidenceKeys = []string{"evidence", "summary", "insight", "report", "text"}
	personaKeys  = []string{"personas", "generated_buyer_personas", "buyer_personas"}
	actionKeys   = []string{"actions", "action_items", "next_best_actions"}
)

// Parse converts an arbitrary insight payload into the canonical
// ParsedInsight. Total: it never panics, regardless of input shape.
func Parse(payload interface{}) ParsedInsight {
	parsed := ParsedInsight{
		Actions:  []Action{},
		Personas: []Persona{},
	}

	data, textEvidence := decode(payload)
	if data == nil {
		parsed.Evidence = textEvidence
		return parsed
	}

	data = unwrap(data)

	rawEvidence := firstValue(data, evidenceKeys)
	parsed.Evidence = coerceEvidence(rawEvidence, 0)
	parsed.Personas = parsePersonas(firstValue(data, personaKeys))
	parsed.Actions = parseActions(data)

	// Legacy shape: a single next-best-action and persona embedded inside
	// the evidence object under literal NextBestAction / Persona keys.
	if len(parsed.Actions) == 0 {
		if evidenceMap, ok := rawEvidence.(map[string]interface{}); ok {
			if embedded, ok := evidenceMap["NextBestAction"].(map[string]interface{}); ok {
				parsed.Actions = []Action{buildAction(embedded, "1")}
				if personaMap, ok := evidenceMap["Persona"].(map[string]interface{}); ok {
					fallbackID := strconv.Itoa(len(parsed.Personas) + 1)
					parsed.Personas = append(parsed.Personas, buildPersona(personaMap, fallbackID))
				}
				parsed.Evidence = coerceString(evidenceMap["evidence"])
			}
		}
	}

	if degraded, ok := data["degraded"].(bool); ok {
		parsed.Degraded = degraded
	}

	return parsed
}

// decode resolves the payload to a string-keyed map. Strings are parsed as
// JSON leniently; a string that fails to parse becomes the evidence text.
// Values that are neither maps nor parseable strings yield nil.
func decode(payload interface{}) (map[string]interface{}, string) {
	switch v := payload.(type) {
	case nil:
		return nil, ""
	case map[string]interface{}:
		return v, ""
	case string:
		return decodeText(v)
	case []byte:
		return decodeText(string(v))
	case json.RawMessage:
		return decodeText(string(v))
	default:
		// Structs and other typed values round-trip through JSON.
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, ""
		}
		var out interface{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, ""
		}
		if m, ok := out.(map[string]interface{}); ok {
			return m, ""
		}
		return nil, ""
	}
}

func decodeText(text string) (map[string]interface{}, string) {
	var out interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, text
	}
	if m, ok := out.(map[string]interface{}); ok {
		return m, ""
	}
	return nil, ""
}

// unwrap flattens the known nesting wrappers (result, report, insight, in
// that precedence order) into the working object, so callers do not need
// to know which wrapper depth the current upstream version uses.
func unwrap(data map[string]interface{}) map[string]interface{} {
	for _, key := range wrapperKeys {
		wrapper, ok := data[key].(map[string]interface{})
		if !ok {
			continue
		}
		merged := make(map[string]interface{}, len(data)+len(wrapper))
		for k, v := range data {
			merged[k] = v
		}
		for k, v := range wrapper {
			merged[k] = v
		}
		data = merged
	}
	return data
}

func firstValue(data map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			return v
		}
	}
	return nil
}

// coerceEvidence resolves an evidence value to a string. Objects recurse
// one level through the evidence priority list before falling back to a
// JSON representation; non-string scalars are stringified.
func coerceEvidence(v interface{}, depth int) string {
	switch evidence := v.(type) {
	case nil:
		return ""
	case string:
		return evidence
	case map[string]interface{}:
		if depth < 1 {
			if inner := firstValue(evidence, evidenceKeys); inner != nil {
				return coerceEvidence(inner, depth+1)
			}
		}
		return coerceString(evidence)
	default:
		return coerceString(v)
	}
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

func parsePersonas(raw interface{}) []Persona {
	personas := []Persona{}

	switch v := raw.(type) {
	case []interface{}:
		for i, item := range v {
			personas = append(personas, buildPersonaValue(item, strconv.Itoa(i+1)))
		}
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			personas = append(personas, buildPersonaValue(v[key], key))
		}
	}

	return personas
}

func buildPersonaValue(item interface{}, fallbackID string) Persona {
	switch p := item.(type) {
	case map[string]interface{}:
		return buildPersona(p, fallbackID)
	default:
		return Persona{
			ID:           fallbackID,
			Name:         coerceString(item),
			Demographics: "unknown",
			Needs:        "unknown",
			Goals:        "unknown",
		}
	}
}

func buildPersona(p map[string]interface{}, fallbackID string) Persona {
	persona := Persona{
		ID:           fallbackID,
		Demographics: "unknown",
		Needs:        "unknown",
		Goals:        "unknown",
	}
	extra := map[string]interface{}{}

	for k, v := range p {
		switch k {
		case "id":
			if s := coerceString(v); s != "" {
				persona.ID = s
			}
		case "name":
			persona.Name = coerceString(v)
		case "demographics":
			if s := coerceString(v); s != "" {
				persona.Demographics = s
			}
		case "needs":
			if s := coerceString(v); s != "" {
				persona.Needs = s
			}
		case "goals":
			if s := coerceString(v); s != "" {
				persona.Goals = s
			}
		default:
			extra[k] = v
		}
	}

	if len(extra) > 0 {
		persona.Extra = extra
	}
	return persona
}

func parseActions(data map[string]interface{}) []Action {
	actions := []Action{}

	switch v := firstValue(data, actionKeys).(type) {
	case []interface{}:
		for i, item := range v {
			actions = append(actions, buildActionValue(item, strconv.Itoa(i+1)))
		}
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			actions = append(actions, buildActionValue(v[key], key))
		}
	}
	if len(actions) > 0 {
		return actions
	}

	// Older payloads shipped a flat insights list with alternate field
	// names; the wrapper flattening already surfaces result.insight.insights
	// at the top level.
	if insights, ok := data["insights"].([]interface{}); ok {
		for i, item := range insights {
			actions = append(actions, buildActionValue(item, strconv.Itoa(i+1)))
		}
	}

	return actions
}

func buildActionValue(item interface{}, fallbackID string) Action {
	switch a := item.(type) {
	case map[string]interface{}:
		return buildAction(a, fallbackID)
	default:
		return Action{ID: fallbackID, Title: coerceString(item)}
	}
}

func buildAction(a map[string]interface{}, fallbackID string) Action {
	action := Action{ID: fallbackID}
	extra := map[string]interface{}{}

	var title, name, actionName, reasoning, description interface{}
	for k, v := range a {
		switch k {
		case "id":
			if s := coerceString(v); s != "" {
				action.ID = s
			}
		case "title":
			title = v
		case "name":
			name = v
		case "action":
			actionName = v
		case "reasoning":
			reasoning = v
		case "description":
			description = v
		case "benefit":
			action.Benefit = coerceString(v)
		default:
			extra[k] = v
		}
	}

	switch {
	case title != nil:
		action.Title = coerceString(title)
	case name != nil:
		action.Title = coerceString(name)
	case actionName != nil:
		action.Title = coerceString(actionName)
	default:
		action.Title = "Action"
	}

	if reasoning != nil {
		action.Reasoning = coerceString(reasoning)
	} else if description != nil {
		action.Reasoning = coerceString(description)
	}

	if len(extra) > 0 {
		action.Extra = extra
	}
	return action
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
