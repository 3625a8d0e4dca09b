package llm

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/reoring/instruct"
)

// SystemPrompt tells the model to answer with one JSON object matching the
// validator's schema.
func SystemPrompt(v *instruct.Validator) (string, error) {
	schemaJSON, err := json.MarshalIndent(v.JSONSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "You extract structured data named %q.\n", v.Title())
	if d := v.Description(); d != "" {
		fmt.Fprintf(b, "Purpose: %s\n", d)
	}
	b.WriteString("Respond with a single JSON object that conforms to this JSON Schema:\n\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Output only the JSON object, no prose.\n")
	b.WriteString("- Include every required property.\n")
	b.WriteString("- Use null for optional values that are unknown.\n")
	b.WriteString("- Integers must not have a fractional part.\n")
	return b.String(), nil
}

// RepairPrompt asks the model to fix its previous answer.
func RepairPrompt(err error) string {
	b := &strings.Builder{}
	b.WriteString("Your previous answer did not match the schema.\n")
	if iss, ok := instruct.AsIssues(err); ok {
		for _, it := range iss {
			path := it.Path
			if path == "" {
				path = "(root)"
			}
			fmt.Fprintf(b, "- %s: %s\n", path, it.Message)
		}
	} else {
		fmt.Fprintf(b, "- %s\n", err.Error())
	}
	b.WriteString("Reply again with only the corrected JSON object.")
	return b.String()
}
