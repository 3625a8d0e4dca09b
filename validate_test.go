package instruct_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reoring/instruct"
	"github.com/reoring/instruct/value"
)

func decode(t *testing.T, js string) any {
	t.Helper()
	v, err := instruct.DecodeJSON([]byte(js), instruct.DefaultDecodeOpt())
	if err != nil {
		t.Fatalf("decode %s: %v", js, err)
	}
	return v
}

func validationErr(t *testing.T, err error) *instruct.ValidationError {
	t.Helper()
	var ve *instruct.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want *ValidationError, got %T: %v", err, err)
	}
	return ve
}

func marshal(t *testing.T, tr *value.Tree) string {
	t.Helper()
	b, err := tr.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestValidate_IntegerFromFloatText(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	out, err := v.Validate(context.Background(), decode(t, `{"name": "John Doe", "age": 30.0}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"name":"John Doe","age":30}` {
		t.Fatalf("unexpected output %s", got)
	}
	if age, _ := out.Get("age"); age != int64(30) {
		t.Fatalf("want int64 30, got %#v", age)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	_, err := v.Validate(context.Background(), decode(t, `{"name": "John Doe"}`))
	ve := validationErr(t, err)
	if ve.Code != instruct.CodeMissingField || ve.Path != "age" {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_NestedObject(t *testing.T) {
	v := instruct.MustCompile(addressSpec())
	out, err := v.Validate(context.Background(), decode(t, `{"address": {"city": "SF"}}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"address":{"city":"SF"}}` {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestValidate_NestedErrorCarriesFullPath(t *testing.T) {
	v := instruct.MustCompile(addressSpec())
	_, err := v.Validate(context.Background(), decode(t, `{"address": {"city": 7}}`))
	ve := validationErr(t, err)
	if ve.Code != instruct.CodeTypeMismatch || ve.Path != "address.city" || ve.Expected != instruct.KindString || ve.Actual != "integer" {
		t.Fatalf("unexpected error %+v", ve)
	}
	iss, _ := instruct.AsIssues(err)
	if iss[0].Message != "expected string, got integer" {
		t.Fatalf("unexpected message %q", iss[0].Message)
	}
}

func TestValidate_OptionalAbsentIsNull(t *testing.T) {
	spec := userSpec()
	spec.Fields = append(spec.Fields, instruct.FieldSpec{Name: "email", Kind: instruct.KindString})
	v := instruct.MustCompile(spec)
	out, err := v.Validate(context.Background(), decode(t, `{"age": 1, "name": "a"}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"name":"a","age":1,"email":null}` {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestValidate_FailFastFollowsDeclaredOrder(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	// both fields are wrong; "name" is declared first even though "age" comes
	// first in the input
	_, err := v.Validate(context.Background(), decode(t, `{"age": "x", "name": 1}`))
	if ve := validationErr(t, err); ve.Path != "name" {
		t.Fatalf("want error at name, got %q", ve.Path)
	}
}

func TestValidate_ExtraFieldIsDropped(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	out, err := v.Validate(context.Background(), decode(t, `{"name": "a", "extra": true, "age": 2}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, ok := out.Get("extra"); ok {
		t.Fatalf("extra field leaked into output")
	}
}

func TestValidate_UnknownStrict(t *testing.T) {
	v := instruct.MustCompile(addressSpec(), instruct.WithUnknownPolicy(instruct.UnknownStrict))
	_, err := v.Validate(context.Background(), decode(t, `{"address": {"city": "SF", "zip": "1"}}`))
	ve := validationErr(t, err)
	if ve.Code != instruct.CodeUnknownField || ve.Path != "address.zip" {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_UnknownPassthrough(t *testing.T) {
	v := instruct.MustCompile(userSpec(), instruct.WithUnknownPolicy(instruct.UnknownPassthrough))
	out, err := v.Validate(context.Background(), decode(t, `{"extra": [1], "name": "a", "age": 2}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"name":"a","age":2,"extra":[1]}` {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestValidate_IntegerCoercion(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{{Name: "n", Kind: instruct.KindInteger, Required: true}}})
	ctx := context.Background()
	accept := map[string]any{
		"float 3.0":       3.0,
		"int":             3,
		"number text 3.0": decode(t, `{"n": 3.0}`),
		"exponent":        decode(t, `{"n": 3e0}`),
	}
	for name, in := range accept {
		t.Run(name, func(t *testing.T) {
			tree := in
			if _, ok := in.(*value.Tree); !ok {
				tree = map[string]any{"n": in}
			}
			out, err := v.Validate(ctx, tree)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if n, _ := out.Get("n"); n != int64(3) {
				t.Fatalf("want 3, got %#v", n)
			}
		})
	}
	reject := map[string]any{
		"fraction":     3.5,
		"out of range": 1e20,
		"huge text":    decode(t, `{"n": 9223372036854775808}`),
		"string":       "3",
		"bool":         true,
	}
	for name, in := range reject {
		t.Run(name, func(t *testing.T) {
			tree := in
			if _, ok := in.(*value.Tree); !ok {
				tree = map[string]any{"n": in}
			}
			_, err := v.Validate(ctx, tree)
			if ve := validationErr(t, err); ve.Code != instruct.CodeTypeMismatch {
				t.Fatalf("want type_mismatch, got %s", ve.Code)
			}
		})
	}
}

func TestValidate_KindRules(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "f", Kind: instruct.KindFloat, Required: true},
		{Name: "b", Kind: instruct.KindBoolean, Required: true},
		{Name: "l", Kind: instruct.KindList, Required: true},
	}})
	out, err := v.Validate(context.Background(), map[string]any{"f": 2, "b": false, "l": []string{"x", "y"}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[string]any{"f": 2.0, "b": false, "l": []any{"x", "y"}}
	if diff := cmp.Diff(want, out.Map()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	_, err = v.Validate(context.Background(), map[string]any{"f": 1.5, "b": "true", "l": nil})
	if ve := validationErr(t, err); ve.Path != "b" || ve.Actual != "string" {
		t.Fatalf("unexpected error %+v", ve)
	}
	_, err = v.Validate(context.Background(), map[string]any{"f": 1.5, "b": true, "l": "abc"})
	if ve := validationErr(t, err); ve.Path != "l" || ve.Expected != instruct.KindList {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_ListElementsAreOpaque(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{{Name: "tags", Kind: instruct.KindList, Required: true}}})
	out, err := v.Validate(context.Background(), decode(t, `{"tags": [1, "two", {"three": 3}, null]}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"tags":[1,"two",{"three":3},null]}` {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestValidate_NullHandling(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "req", Kind: instruct.KindString, Required: true},
		{Name: "opt", Kind: instruct.KindString},
	}})
	out, err := v.Validate(context.Background(), decode(t, `{"req": "x", "opt": null}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"req":"x","opt":null}` {
		t.Fatalf("unexpected output %s", got)
	}
	_, err = v.Validate(context.Background(), decode(t, `{"req": null}`))
	if ve := validationErr(t, err); ve.Code != instruct.CodeTypeMismatch || ve.Actual != "null" {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_DefaultsMaterialized(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "count", Kind: instruct.KindInteger, Default: 2.0},
		{Name: "tags", Kind: instruct.KindList, Default: []any{"a"}},
	}})
	first, err := v.Validate(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, first); got != `{"count":2,"tags":["a"]}` {
		t.Fatalf("unexpected output %s", got)
	}
	tags, _ := first.Get("tags")
	tags.(value.List)[0] = "mutated"

	second, _ := v.Validate(context.Background(), map[string]any{})
	if got := marshal(t, second); got != `{"count":2,"tags":["a"]}` {
		t.Fatalf("default shared between results: %s", got)
	}
}

func TestValidate_RootMustBeObject(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	_, err := v.Validate(context.Background(), decode(t, `[1,2]`))
	ve := validationErr(t, err)
	if ve.Path != "" || ve.Expected != instruct.KindObject || ve.Actual != "list" {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	a := instruct.MustCompile(addressSpec())
	b := instruct.MustCompile(addressSpec())
	tree := decode(t, `{"address": {"city": "SF", "x": 1}}`)
	ctx := context.Background()
	r1, err1 := a.Validate(ctx, tree)
	r2, err2 := b.Validate(ctx, tree)
	r3, err3 := a.Validate(ctx, tree)
	if err1 != nil || err2 != nil || err3 != nil {
		t.Fatalf("unexpected errors: %v %v %v", err1, err2, err3)
	}
	if diff := cmp.Diff(r1.Map(), r2.Map()); diff != "" {
		t.Fatalf("compiled twice differs:\n%s", diff)
	}
	if diff := cmp.Diff(r1.Map(), r3.Map()); diff != "" {
		t.Fatalf("validated twice differs:\n%s", diff)
	}
}

func TestValidate_CanceledContext(t *testing.T) {
	v := instruct.MustCompile(userSpec())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := v.Validate(ctx, map[string]any{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestValidate_MapFieldPassesEntriesThrough(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "meta", Kind: instruct.KindMap, Required: true},
	}})
	out, err := v.Validate(context.Background(), decode(t, `{"meta":{"z":1,"a":{"deep":[true,null]}}}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"meta":{"z":1,"a":{"deep":[true,null]}}}` {
		t.Fatalf("unexpected output %s", got)
	}

	out, err = v.Validate(context.Background(), map[string]any{"meta": map[string]int{"b": 2, "a": 1}})
	if err != nil {
		t.Fatalf("validate go map: %v", err)
	}
	if got := marshal(t, out); got != `{"meta":{"a":1,"b":2}}` {
		t.Fatalf("unexpected output %s", got)
	}

	_, err = v.Validate(context.Background(), decode(t, `{"meta":[1]}`))
	if ve := validationErr(t, err); ve.Expected != instruct.KindMap || ve.Actual != "list" {
		t.Fatalf("unexpected error %+v", ve)
	}
}

func TestValidate_FloatInputsReportFloat(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "a", Kind: instruct.KindString, Required: true},
	}})
	inputs := map[string]any{
		"float64": map[string]any{"a": 3.0},
		"float32": map[string]any{"a": float32(2)},
		"json":    decode(t, `{"a":3.0}`),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), in)
			if ve := validationErr(t, err); ve.Actual != "float" {
				t.Fatalf("want actual float, got %q", ve.Actual)
			}
		})
	}
}

func TestValidate_StringKeyedGoMaps(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Fields: []instruct.FieldSpec{
		{Name: "a", Kind: instruct.KindString, Required: true},
	}})
	out, err := v.Validate(context.Background(), map[string]string{"a": "x"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"a":"x"}` {
		t.Fatalf("unexpected output %s", got)
	}

	_, err = v.Validate(context.Background(), map[int]string{1: "x"})
	if ve := validationErr(t, err); ve.Actual != "map[int]string" {
		t.Fatalf("non-string keys should be reported by type, got %q", ve.Actual)
	}
}
