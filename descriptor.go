package instruct

import (
	"github.com/reoring/instruct/jsonschema"
)

// JSONSchemaDialect is written to the root "$schema" keyword.
const JSONSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// CanonicalField is the normalized description of one field. Kind is always
// canonical and Required is always explicit.
type CanonicalField struct {
	Name        string           `json:"name" yaml:"name"`
	Type        Kind             `json:"type" yaml:"type"`
	Description string           `json:"description" yaml:"description"`
	Required    bool             `json:"required" yaml:"required"`
	Default     any              `json:"default,omitempty" yaml:"default,omitempty"`
	Fields      []CanonicalField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// CanonicalSchema is the lossless tree-shaped description of a compiled
// validator.
type CanonicalSchema struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Fields      []CanonicalField `json:"fields" yaml:"fields"`
}

// Descriptor returns the canonical description of v.
func (v *Validator) Descriptor() CanonicalSchema {
	return CanonicalSchema{Name: v.name, Description: v.description, Fields: canonicalFields(v.fields)}
}

func canonicalFields(fields []field) []CanonicalField {
	out := make([]CanonicalField, len(fields))
	for i := range fields {
		f := &fields[i]
		cf := CanonicalField{Name: f.name, Type: f.kind, Description: f.description, Required: f.required}
		if f.hasDefault {
			cf.Default = f.rawDefault
		}
		if f.children != nil {
			cf.Fields = canonicalFields(f.children.fields)
		}
		out[i] = cf
	}
	return out
}

// Spec rebuilds the SchemaSpec the descriptor describes. Compiling the result
// yields a validator with an equal descriptor.
func (c CanonicalSchema) Spec() SchemaSpec {
	return SchemaSpec{Name: c.Name, Description: c.Description, Fields: specFields(c.Fields)}
}

func specFields(cfs []CanonicalField) []FieldSpec {
	out := make([]FieldSpec, len(cfs))
	for i, cf := range cfs {
		out[i] = FieldSpec{Name: cf.Name, Kind: cf.Type, Description: cf.Description, Required: cf.Required, Default: cf.Default}
		if len(cf.Fields) > 0 {
			out[i].Children = specFields(cf.Fields)
		}
	}
	return out
}

// JSONSchema projects v to JSON Schema. Optional fields accept null, object
// properties list declared order in propertyOrdering, and strict validators
// forbid additional properties.
func (v *Validator) JSONSchema() *jsonschema.Schema {
	s := v.objectSchema()
	s.Schema = JSONSchemaDialect
	return s
}

func (v *Validator) objectSchema() *jsonschema.Schema {
	s := &jsonschema.Schema{
		Title:       v.name,
		Description: v.description,
		Type:        jsonschema.Of("object"),
		Properties:  make(map[string]*jsonschema.Schema, len(v.fields)),
	}
	for i := range v.fields {
		f := &v.fields[i]
		var ps *jsonschema.Schema
		if f.children != nil {
			ps = f.children.objectSchema()
		} else {
			ps = &jsonschema.Schema{Type: jsonschema.Of(f.kind.JSONType())}
			if f.kind == KindList {
				ps.Items = &jsonschema.Schema{}
			}
		}
		ps.Description = f.description
		if f.required {
			s.Required = append(s.Required, f.name)
		} else {
			ps.Type = append(ps.Type, "null")
			if f.hasDefault {
				ps.Default = f.rawDefault
			}
		}
		s.Properties[f.name] = ps
		s.PropertyOrdering = append(s.PropertyOrdering, f.name)
	}
	if v.unknown == UnknownStrict {
		s.AdditionalProperties = jsonschema.Bool(false)
	}
	return s
}
