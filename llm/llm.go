// Package llm asks chat-completion providers for output that matches a
// compiled schema and validates what comes back.
package llm

import (
	"context"
	"fmt"

	"github.com/reoring/instruct/jsonschema"
)

// Roles accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
	// Schema is the output contract; SchemaName names it for providers that
	// require one.
	Schema     *jsonschema.Schema
	SchemaName string
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Response is the raw text a provider produced.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Provider performs a single completion call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Streamer is implemented by providers that can stream text deltas. The
// returned Response carries the full concatenated content.
type Streamer interface {
	Stream(ctx context.Context, req Request, onDelta func(delta string)) (*Response, error)
}

// StatusError is returned when a provider answers with a non-2xx status after
// retries are exhausted.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error status %d: %s", e.Provider, e.StatusCode, e.Body)
}
