package server

import (
	"context"
	"fmt"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/export"
	"github.com/reoring/instruct/llm"
	"github.com/reoring/instruct/value"
)

// Request envelopes are described with the same field lists users submit, so
// malformed requests get the same path-qualified errors as malformed data.
var (
	schemaDefFields = []instruct.FieldSpec{
		{Name: "name", Kind: instruct.KindString},
		{Name: "description", Kind: instruct.KindString},
		{Name: "fields", Kind: instruct.KindList},
	}

	completionEnvelope = instruct.MustCompile(instruct.SchemaSpec{Name: "CompletionRequest", Fields: []instruct.FieldSpec{
		{Name: "schema_def", Kind: instruct.KindObject, Required: true, Children: schemaDefFields},
		{Name: "messages", Kind: instruct.KindList, Required: true},
		{Name: "provider", Kind: instruct.KindString},
		{Name: "model", Kind: instruct.KindString},
		{Name: "api_key", Kind: instruct.KindString},
		{Name: "max_tokens", Kind: instruct.KindInteger},
		{Name: "temperature", Kind: instruct.KindFloat},
		{Name: "stream", Kind: instruct.KindBoolean, Default: false},
	}})

	messageEnvelope = instruct.MustCompile(instruct.SchemaSpec{Name: "Message", Fields: []instruct.FieldSpec{
		{Name: "role", Kind: instruct.KindString, Required: true},
		{Name: "content", Kind: instruct.KindString, Required: true},
	}})

	exportEnvelope = instruct.MustCompile(instruct.SchemaSpec{Name: "ExportRequest", Fields: []instruct.FieldSpec{
		{Name: "format", Kind: instruct.KindString, Default: string(export.FormatJSON)},
		{Name: "title", Kind: instruct.KindString, Default: export.DefaultTitle},
	}})

	validateEnvelope = instruct.MustCompile(instruct.SchemaSpec{Name: "ValidateRequest", Fields: []instruct.FieldSpec{
		{Name: "schema_def", Kind: instruct.KindObject, Required: true, Children: schemaDefFields},
	}})
)

type completionRequest struct {
	schemaDef   any
	messages    []llm.Message
	provider    string
	model       string
	apiKey      string
	maxTokens   int
	temperature *float64
	stream      bool
}

func parseCompletionRequest(ctx context.Context, body *value.Tree) (*completionRequest, error) {
	env, err := completionEnvelope.Validate(ctx, body)
	if err != nil {
		return nil, err
	}
	req := &completionRequest{
		provider: getString(env, "provider"),
		model:    getString(env, "model"),
		apiKey:   getString(env, "api_key"),
		stream:   getBool(env, "stream"),
	}
	req.schemaDef, _ = body.Get("schema_def")
	if n, ok := get[int64](env, "max_tokens"); ok {
		req.maxTokens = int(n)
	}
	if f, ok := get[float64](env, "temperature"); ok {
		req.temperature = &f
	}
	msgs, _ := get[value.List](env, "messages")
	for i, raw := range msgs {
		m, err := messageEnvelope.Validate(ctx, raw)
		if err != nil {
			return nil, prefixPath(err, fmt.Sprintf("messages[%d]", i))
		}
		req.messages = append(req.messages, llm.Message{Role: getString(m, "role"), Content: getString(m, "content")})
	}
	return req, nil
}

// prefixPath re-roots a ValidationError raised on a nested value.
func prefixPath(err error, prefix string) error {
	ve, ok := err.(*instruct.ValidationError)
	if !ok {
		return err
	}
	cp := *ve
	if cp.Path == "" {
		cp.Path = prefix
	} else {
		cp.Path = prefix + "." + cp.Path
	}
	return &cp
}

func get[T any](t *value.Tree, k string) (T, bool) {
	v, _ := t.Get(k)
	x, ok := v.(T)
	return x, ok
}

func getString(t *value.Tree, k string) string {
	s, _ := get[string](t, k)
	return s
}

func getBool(t *value.Tree, k string) bool {
	b, _ := get[bool](t, k)
	return b
}
