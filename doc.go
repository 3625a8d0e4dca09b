// Package instruct compiles field-list schema definitions into validators.
//
// - A SchemaSpec (ordered fields, recursively nested objects) compiles into a Validator
// - Validator.Validate checks and normalizes value trees, fail-fast, in declared order
// - Validator.Descriptor and Validator.JSONSchema describe the compiled shape
// - A stable error model via Issues (dotted path, code, message)
//
// Design policy:
// - Keep only public APIs in the root package; put decoding details under internal/.
// - Exporters live under export/, the completion invoker under llm/ and the CLI under cmd/instruct.
// - The core never logs, blocks or caches; a validator is built per request.
//
// Typical usage:
//
//	spec, err := instruct.ParseSchemaJSON(raw)
//	v, err := instruct.Compile(spec)
//	tree, err := instruct.DecodeJSON(data, instruct.DefaultDecodeOpt())
//	out, err := v.Validate(ctx, tree)
//
//	if iss, ok := instruct.AsIssues(err); ok {
//	    for _, it := range iss { fmt.Println(it.Path, it.Code, it.Message) }
//	}
package instruct
