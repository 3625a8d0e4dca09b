package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	AnthropicVersion        = "2023-06-01"
	// anthropicDefaultMaxTokens is sent when the request leaves MaxTokens unset;
	// the messages API requires the field.
	anthropicDefaultMaxTokens = 1000
)

// Anthropic talks to the Anthropic messages API. A request schema becomes a
// single tool the model is forced to call, so the tool input is the output.
type Anthropic struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Retries    int
	Logger     logrus.FieldLogger
}

func (c *Anthropic) Name() string { return "anthropic" }

func (c *Anthropic) transport() transport {
	return newTransport(c.Name(), c.HTTPClient, c.Retries, c.Logger)
}

func (c *Anthropic) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultAnthropicBaseURL
	}
	return joinURL(base, "/messages")
}

func (c *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": AnthropicVersion,
	}
}

func (c *Anthropic) payload(req Request, stream bool) map[string]any {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	var system []string
	msgs := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		msgs = append(msgs, m)
	}
	p := map[string]any{
		"model":       model,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"messages":    msgs,
	}
	if len(system) > 0 {
		p["system"] = strings.Join(system, "\n\n")
	}
	if req.Schema != nil {
		name := sanitizeName(req.SchemaName)
		p["tools"] = []map[string]any{{
			"name":         name,
			"description":  "Record the answer using this exact structure.",
			"input_schema": req.Schema,
		}}
		p["tool_choice"] = map[string]any{"type": "tool", "name": name}
	}
	if stream {
		p["stream"] = true
	}
	return p
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete implements Provider. A tool_use block wins over text blocks.
func (c *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	var out anthropicResponse
	if err := c.transport().postJSON(ctx, c.endpoint(), c.headers(), c.payload(req, false), &out); err != nil {
		return nil, err
	}
	if len(out.Content) == 0 {
		return nil, errors.New("llm response has no content")
	}
	var text strings.Builder
	content := ""
	for _, block := range out.Content {
		switch block.Type {
		case "tool_use":
			content = string(block.Input)
		case "text":
			text.WriteString(block.Text)
		}
	}
	if content == "" {
		content = text.String()
	}
	return &Response{
		Content: content,
		Model:   out.Model,
		Usage:   Usage{PromptTokens: out.Usage.InputTokens, CompletionTokens: out.Usage.OutputTokens},
	}, nil
}

type anthropicEvent struct {
	Type    string `json:"type"`
	Message struct {
		Model string `json:"model"`
	} `json:"message"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Stream implements Streamer. Both text and tool input deltas are forwarded.
func (c *Anthropic) Stream(ctx context.Context, req Request, onDelta func(string)) (*Response, error) {
	resp, err := c.transport().post(ctx, c.endpoint(), c.headers(), c.payload(req, true))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{}
	var b strings.Builder
	errDone := errors.New("done")
	err = readSSE(resp.Body, func(_, data string) error {
		var ev anthropicEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return err
		}
		switch ev.Type {
		case "message_start":
			out.Model = ev.Message.Model
		case "content_block_delta":
			d := ev.Delta.Text
			if ev.Delta.Type == "input_json_delta" {
				d = ev.Delta.PartialJSON
			}
			if d != "" {
				b.WriteString(d)
				if onDelta != nil {
					onDelta(d)
				}
			}
		case "message_stop":
			return errDone
		case "error":
			return errors.New("anthropic stream error: " + ev.Error.Message)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return nil, err
	}
	out.Content = b.String()
	return out, nil
}
