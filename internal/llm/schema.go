package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map for the extraction response. Field values are loosely typed:
// normalization handles bad individual fields, so the schema only rejects
// responses whose overall shape is unusable.
func BuildReceiptJSONSchema() map[string]any {
	scalarOrNull := map[string]any{"type": []string{"string", "number", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"purchased_at":  map[string]any{"type": []string{"string", "null"}},
			"merchant_name": map[string]any{"type": []string{"string", "null"}},
			"total_amount":  scalarOrNull,
		},
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
