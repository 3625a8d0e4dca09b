package instruct_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reoring/instruct"
)

func TestParseSchemaJSON_WireDefaults(t *testing.T) {
	spec, err := instruct.ParseSchemaJSON([]byte(`{
		"description": "user",
		"fields": [
			{"name": "name", "type": "str"},
			{"name": "age", "kind": "integer", "required": false, "default": 18},
			{"name": "address", "type": "nested", "description": "home", "children": [
				{"name": "city", "type": "string"}
			]},
			{"name": "meta", "type": "dict", "nested_schema": {"fields": [{"name": "k", "type": "bool"}]}}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	age := spec.Fields[1]
	want := instruct.SchemaSpec{
		Name:        instruct.DefaultSchemaName,
		Description: "user",
		Fields: []instruct.FieldSpec{
			{Name: "name", Kind: instruct.KindString, Required: true},
			{Name: "age", Kind: instruct.KindInteger, Required: false, Default: age.Default},
			{Name: "address", Kind: instruct.KindObject, Description: "home", Required: true, Children: []instruct.FieldSpec{
				{Name: "city", Kind: instruct.KindString, Required: true},
			}},
			{Name: "meta", Kind: instruct.KindObject, Required: true, Children: []instruct.FieldSpec{
				{Name: "k", Kind: instruct.KindBoolean, Required: true},
			}},
		},
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if age.Default == nil {
		t.Fatalf("default lost")
	}
	if _, err := instruct.Compile(spec); err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestParseSchemaJSON_TypeDefaultsToString(t *testing.T) {
	v, err := instruct.CompileForCompletion([]byte(`{"fields":[{"name":"title"},{"name":"note","type":null,"required":false}]}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, f := range v.Descriptor().Fields {
		if f.Type != instruct.KindString {
			t.Fatalf("field %s: want string, got %s", f.Name, f.Type)
		}
	}
}

func TestParseSchemaJSON_DictWithoutFieldsIsMap(t *testing.T) {
	v, err := instruct.CompileForCompletion([]byte(`{"fields":[{"name":"meta","type":"dict"}]}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := v.Descriptor().Fields[0].Type; got != instruct.KindMap {
		t.Fatalf("want map, got %s", got)
	}
	out, err := v.Validate(context.Background(), decode(t, `{"meta":{"anything":[1,"two"]}}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := marshal(t, out); got != `{"meta":{"anything":[1,"two"]}}` {
		t.Fatalf("unexpected output %s", got)
	}

	// an explicit object still needs nested fields
	_, err = instruct.CompileForCompletion([]byte(`{"fields":[{"name":"meta","type":"object"}]}`))
	if se := schemaErr(t, err); se.Code != instruct.CodeMissingChildren {
		t.Fatalf("unexpected error %+v", se)
	}
}

func TestParseSchemaJSON_UnknownKindSurvivesUntilCompile(t *testing.T) {
	spec, err := instruct.ParseSchemaJSON([]byte(`{"fields":[{"name":"when","type":"datetime"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = instruct.Compile(spec)
	if se := schemaErr(t, err); se.Code != instruct.CodeInvalidKind || se.Value != "datetime" {
		t.Fatalf("unexpected error %+v", se)
	}
}

func TestParseSchemaJSON_Malformed(t *testing.T) {
	cases := map[string]string{
		"not an object":     `[1]`,
		"fields not a list": `{"fields": {"a": 1}}`,
		"entry not object":  `{"fields": ["a"]}`,
		"required not bool": `{"fields": [{"name": "a", "type": "string", "required": "yes"}]}`,
		"name not string":   `{"fields": [{"name": 1, "type": "string"}]}`,
	}
	for name, js := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := instruct.ParseSchemaJSON([]byte(js))
			if se := schemaErr(t, err); se.Code != instruct.CodeInvalidSchema {
				t.Fatalf("want invalid_schema, got %s", se.Code)
			}
		})
	}
}

func TestParseSchemaJSON_DuplicateKeyRejected(t *testing.T) {
	_, err := instruct.ParseSchemaJSON([]byte(`{"name":"a","name":"b","fields":[]}`))
	iss, ok := instruct.AsIssues(err)
	if !ok || iss[0].Code != instruct.CodeDuplicateKey || iss[0].Path != "name" {
		t.Fatalf("unexpected error %v", err)
	}
}

const yamlSchema = `
name: Invoice
fields:
  - name: number
    type: str
  - name: total
    type: float
  - name: lines
    type: array
    required: false
  - name: customer
    type: object
    fields:
      - name: email
        type: string
        required: false
`

func TestParseSchemaYAML(t *testing.T) {
	spec, err := instruct.ParseSchemaYAML([]byte(yamlSchema))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, err := instruct.Compile(spec)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	d := v.Descriptor()
	if d.Name != "Invoice" || len(d.Fields) != 4 || d.Fields[2].Required || d.Fields[3].Fields[0].Name != "email" {
		t.Fatalf("unexpected descriptor %+v", d)
	}
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	yp := filepath.Join(dir, "invoice.yaml")
	jp := filepath.Join(dir, "user.json")
	if err := os.WriteFile(yp, []byte(yamlSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jp, []byte(`{"name":"U","fields":[{"name":"a","type":"int"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	ys, err := instruct.LoadSchemaFile(yp)
	if err != nil || ys.Name != "Invoice" {
		t.Fatalf("yaml: %+v %v", ys, err)
	}
	js, err := instruct.LoadSchemaFile(jp)
	if err != nil || js.Fields[0].Kind != instruct.KindInteger {
		t.Fatalf("json: %+v %v", js, err)
	}
	if _, err := instruct.LoadSchemaFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
