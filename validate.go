package instruct

import (
	"context"
	"reflect"
	"sort"

	"github.com/reoring/instruct/value"
)

// Validate checks tree against the compiled schema and returns a normalized
// copy holding exactly the declared fields in declared order (plus unknown
// keys under UnknownPassthrough). Checking stops at the first error, which is
// a *ValidationError.
func (v *Validator) Validate(ctx context.Context, tree any) (*value.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.validate(tree, "")
}

func (v *Validator) validate(raw any, path string) (*value.Tree, error) {
	in, ok := viewObject(raw)
	if !ok {
		return nil, &ValidationError{Code: CodeTypeMismatch, Path: path, Expected: KindObject, Actual: kindOf(raw)}
	}
	out := value.NewTree(len(v.fields))
	for i := range v.fields {
		f := &v.fields[i]
		fp := joinField(path, f.name)
		rv, present := in.get(f.name)
		if !present {
			if f.required {
				return nil, &ValidationError{Code: CodeMissingField, Path: fp}
			}
			if f.hasDefault {
				out.Set(f.name, cloneValue(f.def))
			} else {
				out.Set(f.name, nil)
			}
			continue
		}
		if rv == nil {
			if f.required {
				return nil, &ValidationError{Code: CodeTypeMismatch, Path: fp, Expected: f.kind, Actual: "null"}
			}
			out.Set(f.name, nil)
			continue
		}
		nv, err := f.coerce(rv, fp)
		if err != nil {
			return nil, err
		}
		out.Set(f.name, nv)
	}
	if v.unknown == UnknownStrip {
		return out, nil
	}
	for _, k := range in.keys() {
		if v.has(k) {
			continue
		}
		if v.unknown == UnknownStrict {
			return nil, &ValidationError{Code: CodeUnknownField, Path: joinField(path, k)}
		}
		uv, _ := in.get(k)
		out.Set(k, value.From(uv))
	}
	return out, nil
}

func (v *Validator) has(name string) bool {
	for i := range v.fields {
		if v.fields[i].name == name {
			return true
		}
	}
	return false
}

// coerce applies the kind rule of f to a present, non-null value.
func (f *field) coerce(raw any, path string) (any, error) {
	mismatch := func() error {
		return &ValidationError{Code: CodeTypeMismatch, Path: path, Expected: f.kind, Actual: kindOf(raw)}
	}
	switch f.kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch()
		}
		return s, nil
	case KindInteger:
		n, ok := asInteger(raw)
		if !ok {
			return nil, mismatch()
		}
		return n, nil
	case KindFloat:
		x, ok := asFloat(raw)
		if !ok {
			return nil, mismatch()
		}
		return x, nil
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, mismatch()
		}
		return b, nil
	case KindList:
		l, ok := asList(raw)
		if !ok {
			return nil, mismatch()
		}
		return l, nil
	case KindObject:
		return f.children.validate(raw, path)
	case KindMap:
		in, ok := viewObject(raw)
		if !ok {
			return nil, mismatch()
		}
		return in.copyTree(), nil
	}
	return nil, mismatch()
}

// objectView gives ordered read access to *value.Tree and map input.
type objectView struct {
	tree *value.Tree
	m    map[string]any
}

func viewObject(raw any) (objectView, bool) {
	switch x := raw.(type) {
	case *value.Tree:
		if x == nil {
			return objectView{}, false
		}
		return objectView{tree: x}, true
	case map[string]any:
		if x == nil {
			return objectView{}, false
		}
		return objectView{m: x}, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return objectView{}, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return objectView{m: m}, true
}

// copyTree copies the viewed object into a fresh tree.
func (o objectView) copyTree() *value.Tree {
	keys := o.keys()
	out := value.NewTree(len(keys))
	for _, k := range keys {
		v, _ := o.get(k)
		out.Set(k, cloneValue(value.From(v)))
	}
	return out
}

func (o objectView) get(k string) (any, bool) {
	if o.tree != nil {
		return o.tree.Get(k)
	}
	v, ok := o.m[k]
	return v, ok
}

// keys returns input keys in input order; map keys are sorted.
func (o objectView) keys() []string {
	if o.tree != nil {
		return o.tree.Keys()
	}
	ks := make([]string, 0, len(o.m))
	for k := range o.m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// cloneValue deep-copies tree and list nodes so materialized defaults are
// never shared between results.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *value.Tree:
		out := value.NewTree(x.Len())
		for _, k := range x.Keys() {
			cv, _ := x.Get(k)
			out.Set(k, cloneValue(cv))
		}
		return out
	case value.List:
		out := make(value.List, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case []any:
		out := make(value.List, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case map[string]any:
		return value.FromMap(x)
	}
	return v
}
