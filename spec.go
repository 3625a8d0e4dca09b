package instruct

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/instruct/value"
	"gopkg.in/yaml.v3"
)

// DefaultSchemaName is used when a schema definition carries no name.
const DefaultSchemaName = "DynamicModel"

// FieldSpec declares a single field. Children is set only for object fields.
type FieldSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        Kind        `json:"type" yaml:"type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required" yaml:"required"`
	Default     any         `json:"default,omitempty" yaml:"default,omitempty"`
	Children    []FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// SchemaSpec is an ordered list of fields plus a name and description.
type SchemaSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

// SpecFromValue reads a schema definition from a decoded value tree
// (*value.Tree or map[string]any). Kind aliases are normalized, "type"
// defaults to string, "required" defaults to true, "kind" is accepted for
// "type" and "children" for "fields". A missing name becomes DefaultSchemaName.
// Unknown kind names are kept as written so Compile can report them.
func SpecFromValue(v any) (SchemaSpec, error) {
	root, ok := asTree(v)
	if !ok {
		return SchemaSpec{}, &SchemaError{Code: CodeInvalidSchema, Value: "schema definition must be an object"}
	}
	var spec SchemaSpec
	var err error
	if spec.Name, err = optString(root, "name", ""); err != nil {
		return SchemaSpec{}, err
	}
	if spec.Description, err = optString(root, "description", ""); err != nil {
		return SchemaSpec{}, err
	}
	if spec.Name == "" {
		spec.Name = DefaultSchemaName
	}
	raw, _ := lookup(root, "fields", "children")
	spec.Fields, err = fieldsFromValue(raw, "")
	if err != nil {
		return SchemaSpec{}, err
	}
	return spec, nil
}

func fieldsFromValue(raw any, path string) ([]FieldSpec, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := asList(raw)
	if !ok {
		return nil, &SchemaError{Code: CodeInvalidSchema, Path: path, Value: "fields must be a list"}
	}
	out := make([]FieldSpec, 0, len(items))
	for i, it := range items {
		fp := joinIndex(joinField(path, "fields"), i)
		ft, ok := asTree(it)
		if !ok {
			return nil, &SchemaError{Code: CodeInvalidSchema, Path: fp, Value: "field entry must be an object"}
		}
		f, err := fieldFromTree(ft, fp, path)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func fieldFromTree(ft *value.Tree, entryPath, parent string) (FieldSpec, error) {
	var f FieldSpec
	var err error
	if f.Name, err = optString(ft, "name", entryPath); err != nil {
		return f, err
	}
	if f.Description, err = optString(ft, "description", entryPath); err != nil {
		return f, err
	}
	kindRaw, _ := lookup(ft, "type", "kind")
	ks := string(KindString)
	if kindRaw != nil {
		s, ok := kindRaw.(string)
		if !ok {
			return f, &SchemaError{Code: CodeInvalidKind, Path: joinField(parent, f.Name), Name: f.Name, Value: fmt.Sprint(kindRaw)}
		}
		ks = s
	}
	if k, ok := ParseKind(ks); ok {
		f.Kind = k
	} else {
		f.Kind = Kind(ks)
	}
	f.Required = true
	if r, present := ft.Get("required"); present && r != nil {
		b, ok := r.(bool)
		if !ok {
			return f, &SchemaError{Code: CodeInvalidSchema, Path: joinField(parent, f.Name), Name: f.Name, Value: "required must be a boolean"}
		}
		f.Required = b
	}
	f.Default, _ = ft.Get("default")

	children, hasChildren := lookup(ft, "fields", "children")
	if !hasChildren {
		// {"type": "nested", "nested_schema": {"fields": [...]}}
		if ns, ok := ft.Get("nested_schema"); ok {
			if nt, ok := asTree(ns); ok {
				children, hasChildren = lookup(nt, "fields", "children")
			}
		}
	}
	if hasChildren && children != nil {
		f.Children, err = fieldsFromValue(children, joinField(parent, f.Name))
		if err != nil {
			return f, err
		}
	}
	// "dict" with nested fields is a nested object; without them it stays a
	// free-form map.
	if f.Kind == KindMap && len(f.Children) > 0 {
		f.Kind = KindObject
	}
	return f, nil
}

func lookup(t *value.Tree, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := t.Get(n); ok {
			return v, true
		}
	}
	return nil, false
}

func optString(t *value.Tree, key, path string) (string, error) {
	v, ok := t.Get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &SchemaError{Code: CodeInvalidSchema, Path: path, Value: key + " must be a string"}
	}
	return s, nil
}

func asTree(v any) (*value.Tree, bool) {
	switch x := v.(type) {
	case *value.Tree:
		return x, x != nil
	case map[string]any:
		return value.FromMap(x), true
	}
	return nil, false
}

// ParseSchemaJSON decodes a JSON schema definition. Duplicate keys are
// rejected.
func ParseSchemaJSON(data []byte) (SchemaSpec, error) {
	v, err := DecodeJSON(data, DefaultDecodeOpt())
	if err != nil {
		return SchemaSpec{}, err
	}
	return SpecFromValue(v)
}

// ParseSchemaYAML decodes a YAML schema definition.
func ParseSchemaYAML(data []byte) (SchemaSpec, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return SchemaSpec{}, Issues{{Code: CodeParseError, Message: err.Error()}}
	}
	m := yamlAnyToStringMap(node)
	if m == nil {
		return SchemaSpec{}, &SchemaError{Code: CodeInvalidSchema, Value: "schema definition must be a mapping"}
	}
	return SpecFromValue(m)
}

// LoadSchemaFile reads a schema definition from disk. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON.
func LoadSchemaFile(path string) (SchemaSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchemaSpec{}, fmt.Errorf("read schema file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSchemaYAML(data)
	default:
		return ParseSchemaJSON(data)
	}
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	}
	return nil
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = yamlNormalizeValue(t[i])
		}
		return out
	}
	return v
}
