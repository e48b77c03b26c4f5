package pop

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// submitAckSchema constrains the submit acknowledgement. "status" must be
// present; the task id may arrive as a string or a number.
func submitAckSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "minLength": 1},
			"taskId": map[string]any{"type": []string{"string", "number"}},
			"msg":    map[string]any{"type": "string"},
		},
		"required": []string{"status"},
	}
}

// statusSchema constrains a task-results payload. Nothing is required, since
// the API legitimately omits fields mid-run, but present fields must carry
// the right types so a semantically garbled body fails fast instead of being
// misread as an Unknown observation.
func statusSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":    map[string]any{"type": "string"},
			"msg":       map[string]any{"type": "string"},
			"value":     map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"pageScore": map[string]any{"type": "number"},
			"cleanedContentBrief": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{"type": "string"},
				},
			},
		},
	}
}

// validateJSON validates "data" against "schemaMap".
func validateJSON(schemaMap map[string]any, data []byte) error {
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
