package instruct

import (
	"github.com/reoring/instruct/jsonschema"
)

// SchemaReport is the response of a successful schema check.
type SchemaReport struct {
	Valid      bool               `json:"valid"`
	Schema     CanonicalSchema    `json:"schema"`
	JSONSchema *jsonschema.Schema `json:"json_schema"`
}

// ValidateSchema decodes and compiles a raw JSON schema definition and
// reports its canonical and JSON Schema forms. Malformed definitions return
// the *SchemaError (or decode Issues) unchanged.
func ValidateSchema(raw []byte, opts ...Option) (*SchemaReport, error) {
	spec, err := ParseSchemaJSON(raw)
	if err != nil {
		return nil, err
	}
	return ReportFor(spec, opts...)
}

// ReportFor compiles an already decoded definition into a SchemaReport.
func ReportFor(spec SchemaSpec, opts ...Option) (*SchemaReport, error) {
	v, err := Compile(spec, opts...)
	if err != nil {
		return nil, err
	}
	return &SchemaReport{Valid: true, Schema: v.Descriptor(), JSONSchema: v.JSONSchema()}, nil
}

// CompileForCompletion decodes and compiles a raw JSON schema definition for
// use as the output contract of a completion.
func CompileForCompletion(raw []byte, opts ...Option) (*Validator, error) {
	spec, err := ParseSchemaJSON(raw)
	if err != nil {
		return nil, err
	}
	return Compile(spec, opts...)
}
