package middleware

import (
	"context"

	"github.com/reoring/instruct"
)

// ctxKeyBody is a typed context key for the decoded request body.
type ctxKeyBody struct{}

// ContextWithBody attaches a decoded JSON body to the context.
func ContextWithBody(ctx context.Context, body any) context.Context {
	return context.WithValue(ctx, ctxKeyBody{}, body)
}

// BodyFromContext retrieves the decoded JSON body from context.
func BodyFromContext(ctx context.Context) (any, bool) {
	v := ctx.Value(ctxKeyBody{})
	return v, v != nil
}

// DefaultDecodeOpt returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Nesting deeper than maxDepth is rejected (0 disables the check)
func DefaultDecodeOpt(maxDepth int) instruct.DecodeOpt {
	return instruct.DecodeOpt{
		Strictness: instruct.Strictness{OnDuplicateKey: instruct.Error},
		MaxDepth:   maxDepth,
	}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(detail string, issues []instruct.Issue) map[string]any {
	if issues == nil {
		issues = []instruct.Issue{}
	}
	return map[string]any{"detail": detail, "issues": issues}
}
