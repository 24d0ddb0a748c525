package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"remitapi/internal/model"
)

// BuildClaimJSONSchema describes the object the model must return: one
// nullable scalar per expected key and a 0-100 confidence.
func BuildClaimJSONSchema(keys []string) map[string]any {
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k] = map[string]any{"type": []string{"string", "number", "null"}}
	}
	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []string{"fields", "confidence"},
		"properties": map[string]any{
			"fields": map[string]any{
				"type":       "object",
				"properties": props,
			},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("claim.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("claim.json")
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

func systemPrompt(schema model.TemplateSchema) string {
	var fields strings.Builder
	for _, sec := range schema.Sections {
		for _, f := range sec.Fields {
			fields.WriteString("- ")
			fields.WriteString(model.NormalizeKey(f.Key))
			if f.Label != "" {
				fields.WriteString(" (" + f.Label + ")")
			}
			if f.Type != "" {
				fields.WriteString(": " + string(f.Type))
			}
			fields.WriteString("\n")
		}
	}
	parts := []string{
		"You extract one insurance claim from a remittance advice (EOB/ERA).",
		"The text holds a document header with payer and payment details, a separator line, then exactly one claim.",
		"Return ONLY a JSON object {\"fields\": {...}, \"confidence\": 0-100}.",
		"Use exactly these field keys; use null when a value is absent:\n" + fields.String(),
		"Dates as YYYY-MM-DD. Money as plain decimals without currency symbols.",
		"Never invent a claim number.",
	}
	return strings.Join(parts, " ")
}

func userPrompt(text string, maxChars int) string {
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return "Remittance text:\n" + text + "\n\nReturn ONLY JSON that matches the provided schema."
}
