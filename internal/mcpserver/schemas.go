package mcpserver

import (
	jsc "github.com/google/jsonschema-go/jsonschema"
)

func fieldSchema() *jsc.Schema {
	return &jsc.Schema{
		Type: "object",
		Properties: map[string]*jsc.Schema{
			"name":        {Type: "string"},
			"type":        {Type: "string", Description: "string, integer, float, boolean, list, object or map; defaults to string"},
			"description": {Type: "string"},
			"required":    {Type: "boolean", Description: "defaults to true"},
			"default":     {Description: "value used when an optional field is absent"},
			"fields":      {Type: "array", Description: "nested fields of an object field"},
		},
		Required: []string{"name"},
	}
}

func createSchemaInput() *jsc.Schema {
	return &jsc.Schema{
		Type: "object",
		Properties: map[string]*jsc.Schema{
			"name":        {Type: "string", Description: "Schema name"},
			"description": {Type: "string", Description: "Schema description"},
			"fields":      {Type: "array", Description: "List of fields", Items: fieldSchema()},
		},
		Required: []string{"fields"},
	}
}

func runCompletionInput() *jsc.Schema {
	return &jsc.Schema{
		Type: "object",
		Properties: map[string]*jsc.Schema{
			"schema": {
				Type:        "object",
				Description: "Schema definition",
				Properties: map[string]*jsc.Schema{
					"name":   {Type: "string"},
					"fields": {Type: "array", Items: fieldSchema()},
				},
			},
			"prompt":   {Type: "string", Description: "Prompt for the model"},
			"provider": {Type: "string", Description: "LLM provider", Enum: []any{"openai", "anthropic"}},
			"model":    {Type: "string", Description: "Model name (optional)"},
		},
		Required: []string{"schema", "prompt"},
	}
}

func exportResultInput() *jsc.Schema {
	return &jsc.Schema{
		Type: "object",
		Properties: map[string]*jsc.Schema{
			"data":   {Description: "Data to export (object or list)"},
			"format": {Type: "string", Description: "Export format", Enum: []any{"json", "markdown", "md"}},
			"title":  {Type: "string", Description: "Title for markdown export"},
		},
		Required: []string{"data", "format"},
	}
}
