package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdmoraes/jurisdigest/constants"
)

// BuildSummarySchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map for the given document type. Required fields come from the
// per-type table; values may be strings, lists or nested objects, so the
// per-field constraint is deliberately loose.
func BuildSummarySchema(dt constants.DocType) map[string]any {
	required := constants.RequiredFields(dt)

	props := map[string]any{
		constants.ExecutiveSummaryField: map[string]any{"type": "string", "minLength": 1},
		"numero_processo":               map[string]any{"type": "string"},
		"tribunal":                      map[string]any{"type": "string"},
		"tipo_documento":                map[string]any{"type": "string"},
		"observacoes":                   map[string]any{"type": "string"},
	}
	for _, f := range required {
		if _, ok := props[f]; ok {
			continue
		}
		props[f] = map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array"},
				map[string]any{"type": "object"},
				map[string]any{"type": "number"},
			},
		}
	}

	return map[string]any{
		"type": "object",
		// Models often volunteer extra fields; keep them.
		"additionalProperties": true,
		"properties":           props,
		"required":             required,
	}
}

// validateJSONAgainstSchema validates data against schemaMap.
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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
