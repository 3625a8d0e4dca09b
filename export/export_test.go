package export_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/export"
	"github.com/reoring/instruct/value"
)

func sampleTree() *value.Tree {
	addr := value.NewTree(2)
	addr.Set("city", "SF")
	addr.Set("zip", nil)
	t := value.NewTree(4)
	t.Set("name", "John Doe")
	t.Set("age", int64(30))
	t.Set("address", addr)
	t.Set("tags", value.List{"a", "b"})
	return t
}

func TestRender_JSONPrettyKeepsOrder(t *testing.T) {
	got, err := export.Render(sampleTree(), export.FormatJSON)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{
  "name": "John Doe",
  "age": 30,
  "address": {
    "city": "SF",
    "zip": null
  },
  "tags": [
    "a",
    "b"
  ]
}`
	if got != want {
		t.Fatalf("unexpected json\n got: %s\nwant: %s", got, want)
	}
}

func TestRender_JSONCompact(t *testing.T) {
	got, err := export.Render(map[string]any{"b": 1, "a": []any{true}}, export.FormatJSON, export.WithCompact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != `{"a":[true],"b":1}` {
		t.Fatalf("unexpected json %s", got)
	}
}

func TestRender_Markdown(t *testing.T) {
	got, err := export.Render(sampleTree(), export.FormatMarkdown, export.WithTitle("Person"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := strings.Join([]string{
		"# Person\n",
		"- **name**: John Doe",
		"- **age**: 30",
		"- **address**:",
		"  - **city**: SF",
		"  - **zip**: _(none)_",
		"- **tags**:",
		"  - a",
		"  - b",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected markdown\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_MarkdownTopLevelListAndDefaultTitle(t *testing.T) {
	got, err := export.Render([]any{map[string]any{"k": 1.5}, "x"}, export.FormatMarkdown)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "# Result\n\n- **items**:\n  - **k**: 1.5\n  - x"
	if got != want {
		t.Fatalf("unexpected markdown %q", got)
	}
}

func TestRenderNamed_UnsupportedFormat(t *testing.T) {
	_, err := export.RenderNamed(sampleTree(), "xml")
	var ee *export.Error
	if !errors.As(err, &ee) || ee.Code != export.CodeUnsupportedFormat || ee.Format != "xml" {
		t.Fatalf("want unsupported_format, got %v", err)
	}
	iss, ok := instruct.AsIssues(err)
	if !ok || iss[0].Code != export.CodeUnsupportedFormat {
		t.Fatalf("AsIssues: %v", iss)
	}
	if _, err := export.RenderNamed(sampleTree(), "MD"); err != nil {
		t.Fatalf("md alias rejected: %v", err)
	}
}

func TestFilenameAndMediaType(t *testing.T) {
	if got := export.Filename("My Report", export.FormatMarkdown); got != "My_Report.md" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := export.Filename("", export.FormatJSON); got != "Result.json" {
		t.Fatalf("unexpected filename %q", got)
	}
	if export.MediaType(export.FormatMarkdown) != "text/markdown" || export.MediaType(export.FormatJSON) != "application/json" {
		t.Fatalf("unexpected media types")
	}
}

func TestRenderSchema(t *testing.T) {
	v := instruct.MustCompile(instruct.SchemaSpec{Name: "Person", Fields: []instruct.FieldSpec{
		{Name: "name", Kind: instruct.KindString, Description: "full name", Required: true},
		{Name: "address", Kind: instruct.KindObject, Children: []instruct.FieldSpec{
			{Name: "city", Kind: instruct.KindString, Required: true},
		}},
	}})
	md, err := export.RenderSchema(v.Descriptor(), export.FormatMarkdown)
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	want := "# Person\n\n## Fields\n- `name` (string, required): full name\n- `address` (object, optional)\n  - `city` (string, required)\n"
	if md != want {
		t.Fatalf("unexpected markdown %q", md)
	}

	y, err := export.RenderSchema(v.Descriptor(), export.FormatYAML)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	spec, err := instruct.ParseSchemaYAML([]byte(y))
	if err != nil {
		t.Fatalf("re-parse yaml: %v", err)
	}
	if spec.Fields[1].Children[0].Name != "city" || spec.Fields[1].Required {
		t.Fatalf("yaml round trip lost shape: %+v", spec)
	}

	if _, err := export.RenderSchema(v.Descriptor(), "toml"); err == nil {
		t.Fatalf("expected unsupported format")
	}
}
