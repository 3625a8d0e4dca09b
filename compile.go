package instruct

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validator is a compiled schema. It is immutable and safe for concurrent use.
type Validator struct {
	name        string
	description string
	fields      []field
	unknown     UnknownPolicy
}

type field struct {
	name        string
	kind        Kind
	description string
	required    bool
	// rawDefault is the default as declared; def is its normalized form.
	rawDefault any
	def        any
	hasDefault bool
	children   *Validator // object fields only
}

// Compile checks spec and builds a validator. Fields are checked in declared
// order, depth first, and the first problem is returned as a *SchemaError.
func Compile(spec SchemaSpec, opts ...Option) (*Validator, error) {
	cfg := compileConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	return compileFields(spec.Name, spec.Description, spec.Fields, "", cfg)
}

// MustCompile is like Compile but panics on error.
func MustCompile(spec SchemaSpec, opts ...Option) *Validator {
	v, err := Compile(spec, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func compileFields(name, desc string, specs []FieldSpec, path string, cfg compileConfig) (*Validator, error) {
	v := &Validator{name: name, description: desc, fields: make([]field, 0, len(specs)), unknown: cfg.unknown}
	seen := make(map[string]struct{}, len(specs))
	for i, fs := range specs {
		if fs.Name == "" {
			return nil, &SchemaError{Code: CodeEmptyFieldName, Path: joinIndex(joinField(path, "fields"), i)}
		}
		fp := joinField(path, fs.Name)
		if _, dup := seen[fs.Name]; dup {
			return nil, &SchemaError{Code: CodeDuplicateField, Path: fp, Name: fs.Name}
		}
		seen[fs.Name] = struct{}{}

		kind := fs.Kind
		if !kind.Valid() {
			k, ok := ParseKind(string(kind))
			if !ok {
				return nil, &SchemaError{Code: CodeInvalidKind, Path: fp, Name: fs.Name, Value: string(fs.Kind)}
			}
			kind = k
		}
		f := field{name: fs.Name, kind: kind, description: fs.Description, required: fs.Required}

		switch {
		case kind == KindObject && len(fs.Children) == 0:
			return nil, &SchemaError{Code: CodeMissingChildren, Path: fp, Name: fs.Name}
		case kind != KindObject && len(fs.Children) > 0:
			return nil, &SchemaError{Code: CodeUnexpectedChildren, Path: fp, Name: fs.Name}
		case kind == KindObject:
			child, err := compileFields(nestedName(fs.Name), fs.Description, fs.Children, fp, cfg)
			if err != nil {
				return nil, err
			}
			f.children = child
		}

		if fs.Default != nil {
			if fs.Required {
				return nil, &SchemaError{Code: CodeInvalidDefault, Path: fp, Name: fs.Name, Value: "required fields cannot declare a default"}
			}
			def, err := f.coerce(fs.Default, fp)
			if err != nil {
				return nil, &SchemaError{Code: CodeInvalidDefault, Path: fp, Name: fs.Name, Value: defaultReason(err)}
			}
			f.rawDefault = fs.Default
			f.def = def
			f.hasDefault = true
		}
		v.fields = append(v.fields, f)
	}
	return v, nil
}

// nestedName derives the title of a nested object ("address" -> "AddressType").
func nestedName(fieldName string) string {
	r, size := utf8.DecodeRuneInString(fieldName)
	return string(unicode.ToUpper(r)) + strings.ToLower(fieldName[size:]) + "Type"
}

func defaultReason(err error) string {
	if ve, ok := err.(*ValidationError); ok {
		if ve.Code == CodeTypeMismatch {
			return "expected " + string(ve.Expected) + ", got " + ve.Actual
		}
		return ve.Code + " at " + displayPath(ve.Path)
	}
	return err.Error()
}

// Name returns the schema name as declared, possibly empty.
func (v *Validator) Name() string { return v.name }

// Title is Name, or DefaultSchemaName for unnamed schemas. It labels
// prompts, completion requests and exported documents.
func (v *Validator) Title() string {
	if v.name == "" {
		return DefaultSchemaName
	}
	return v.name
}

// Description returns the schema description.
func (v *Validator) Description() string { return v.description }

// UnknownPolicy returns the policy applied to undeclared keys.
func (v *Validator) UnknownPolicy() UnknownPolicy { return v.unknown }

// FieldNames lists top-level field names in declared order.
func (v *Validator) FieldNames() []string {
	out := make([]string, len(v.fields))
	for i := range v.fields {
		out[i] = v.fields[i].name
	}
	return out
}
