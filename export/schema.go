package export

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/reoring/instruct"
	"gopkg.in/yaml.v3"
)

// FormatYAML is accepted by RenderSchema only.
const FormatYAML Format = "yaml"

// RenderSchema documents a compiled schema as JSON, YAML or a Markdown field
// reference.
func RenderSchema(d instruct.CanonicalSchema, format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return "", fmt.Errorf("export schema: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(d)
		if err != nil {
			return "", fmt.Errorf("export schema: %w", err)
		}
		return string(b), nil
	case FormatMarkdown:
		b := &strings.Builder{}
		fmt.Fprintf(b, "# %s\n\n", d.Name)
		if d.Description != "" {
			fmt.Fprintf(b, "%s\n\n", d.Description)
		}
		fmt.Fprintln(b, "## Fields")
		b.WriteString(renderFields(d.Fields, ""))
		return b.String(), nil
	}
	return "", &Error{Code: CodeUnsupportedFormat, Format: string(format)}
}

func renderFields(fields []instruct.CanonicalField, indent string) string {
	b := &strings.Builder{}
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(b, "%s- `%s` (%s, %s)", indent, f.Name, f.Type, req)
		if f.Description != "" {
			fmt.Fprintf(b, ": %s", f.Description)
		}
		if f.Default != nil {
			fmt.Fprintf(b, " (default: `%v`)", f.Default)
		}
		b.WriteString("\n")
		if len(f.Fields) > 0 {
			b.WriteString(renderFields(f.Fields, indent+"  "))
		}
	}
	return b.String()
}
