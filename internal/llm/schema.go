package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/preventio/duerp-import/constants"
)

// BuildStructureJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate what comes back.
func BuildStructureJSONSchema() map[string]any {
	cotation := map[string]any{
		"type":    "integer",
		"minimum": constants.CotationMin,
		"maximum": constants.CotationMax,
	}

	risk := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"work_unit_name":      map[string]any{"type": "string", "minLength": 1},
			"hazard":              map[string]any{"type": "string", "minLength": 1},
			"dangerous_situation": map[string]any{"type": "string"},
			"exposed_persons":     map[string]any{"type": "integer", "minimum": 0},
			"frequency":           cotation,
			"probability":         cotation,
			"severity":            cotation,
			"control":             cotation,
			"existing_measures":   map[string]any{"type": "string"},
		},
		"required": []string{"work_unit_name", "hazard", "frequency", "probability", "severity", "control"},
	}

	workUnit := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":          map[string]any{"type": "string", "minLength": 1},
			"description":   map[string]any{"type": "string"},
			"exposed_count": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"name"},
	}

	measure := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"type":        map[string]any{"type": "string"},
		},
		"required": []string{"description"},
	}

	company := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"legal_name":     map[string]any{"type": "string", "minLength": 1},
			"siret":          map[string]any{"type": "string", "pattern": `^\d{14}$`},
			"address":        map[string]any{"type": "string"},
			"employee_count": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"legal_name"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"company":    company,
			"work_units": map[string]any{"type": "array", "items": workUnit},
			"risks":      map[string]any{"type": "array", "items": risk},
			"measures":   map[string]any{"type": "array", "items": measure},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"work_units", "risks", "measures", "confidence"},
	}
}

// BuildEnrichJSONSchema constrains the enrichment pass output.
func BuildEnrichJSONSchema() map[string]any {
	structure := BuildStructureJSONSchema()
	props := structure["properties"].(map[string]any)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"risks":    props["risks"],
			"measures": props["measures"],
		},
		"required": []string{"risks", "measures"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
