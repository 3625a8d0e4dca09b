package benchmarks_test

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/reoring/instruct"
)

// ---- Helpers ----

func userValidator(tb testing.TB, policy instruct.UnknownPolicy) *instruct.Validator {
	tb.Helper()
	v, err := instruct.Compile(instruct.SchemaSpec{Name: "User", Fields: []instruct.FieldSpec{
		{Name: "id", Kind: instruct.KindString, Required: true},
		{Name: "name", Kind: instruct.KindString},
		{Name: "age", Kind: instruct.KindInteger},
		{Name: "meta", Kind: instruct.KindObject, Children: []instruct.FieldSpec{
			{Name: "score", Kind: instruct.KindFloat, Required: true},
		}},
	}}, instruct.WithUnknownPolicy(policy))
	if err != nil {
		tb.Fatalf("compile failed: %v", err)
	}
	return v
}

func smallUserJSON() []byte {
	return []byte(`{"id":"u_1","name":"alice","age":30,"meta":{"score":1.5}}`)
}

// wideUserJSON returns a user object padded with extra unknown keys k0..kN.
func wideUserJSON(extra int) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"id":"u_1","name":"alice","age":30,"meta":{"score":1.5}`)
	for i := 0; i < extra; i++ {
		buf.WriteString(`,"k` + strconv.Itoa(i) + `":"v` + strconv.Itoa(i) + `"`)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// ---- Benchmarks ----

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		userValidator(b, instruct.UnknownStrip)
	}
}

func BenchmarkDecodeJSON_Small(b *testing.B) {
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := instruct.DecodeJSON(data, instruct.DefaultDecodeOpt()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeAndValidate_Small(b *testing.B) {
	v := userValidator(b, instruct.UnknownStrip)
	data := smallUserJSON()
	ctx := context.Background()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		tree, err := instruct.DecodeJSON(data, instruct.DefaultDecodeOpt())
		if err != nil {
			b.Fatal(err)
		}
		if _, err := v.Validate(ctx, tree); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidate_WideUnknownPolicies(b *testing.B) {
	data := wideUserJSON(200)
	tree, err := instruct.DecodeJSON(data, instruct.DefaultDecodeOpt())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []instruct.UnknownPolicy{instruct.UnknownStrip, instruct.UnknownPassthrough} {
		v := userValidator(b, p)
		b.Run(p.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := v.Validate(ctx, tree); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
