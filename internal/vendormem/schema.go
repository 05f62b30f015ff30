package vendormem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/booking-drafts/internal/entity"
)

// BuildRuleFileJSONSchema returns a JSON-Schema (draft 2020-12 subset) for a
// vendor-rule import file: an array of {pattern, draft} objects.
func BuildRuleFileJSONSchema() map[string]any {
	draftProps := map[string]any{
		"description":    map[string]any{"type": "string"},
		"debit_account":  map[string]any{"type": "string", "pattern": `^\d{4}$`},
		"credit_account": map[string]any{"type": "string", "pattern": `^\d{4}$`},
		"category":       map[string]any{"type": "string"},
		"amount":         decimalProp(),
		"vat_rate":       decimalProp(),
		"vat_amount":     decimalProp(),
		"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"payment_status": map[string]any{"type": "string", "enum": []string{"OPEN", "PAID"}},
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"pattern", "draft"},
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "minLength": 1},
				"draft": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           draftProps,
				},
			},
		},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d+)?$`,
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

type ruleFileEntry struct {
	Pattern string            `json:"pattern"`
	Draft   entity.DraftPatch `json:"draft"`
}

// ImportRules validates a rule file and loads its entries into the store,
// oldest entry first so the file's last rule ends up most recent.
func ImportRules(ctx context.Context, store Store, data []byte) (int, error) {
	if err := ValidateJSONAgainstSchema(BuildRuleFileJSONSchema(), data); err != nil {
		return 0, err
	}
	var entries []ruleFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("unmarshal rules: %w", err)
	}
	for _, e := range entries {
		if _, err := store.Add(ctx, e.Pattern, e.Draft); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
