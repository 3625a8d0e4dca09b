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
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAI talks to OpenAI-compatible chat completion endpoints. When the
// request carries a schema it is sent as a json_schema response format.
type OpenAI struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Retries    int
	Logger     logrus.FieldLogger
}

func (c *OpenAI) Name() string { return "openai" }

func (c *OpenAI) transport() transport {
	return newTransport(c.Name(), c.HTTPClient, c.Retries, c.Logger)
}

func (c *OpenAI) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	return joinURL(base, "/chat/completions")
}

func (c *OpenAI) payload(req Request, stream bool) map[string]any {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	p := map[string]any{
		"model":       model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		p["max_tokens"] = req.MaxTokens
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "output"
		}
		p["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   sanitizeName(name),
				"schema": req.Schema,
				"strict": false,
			},
		}
	}
	if stream {
		p["stream"] = true
	}
	return p
}

func (c *OpenAI) headers() map[string]string {
	h := map[string]string{}
	if c.APIKey != "" {
		h["Authorization"] = "Bearer " + c.APIKey
	}
	return h
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete implements Provider.
func (c *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	var out openAIResponse
	if err := c.transport().postJSON(ctx, c.endpoint(), c.headers(), c.payload(req, false), &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("llm response has no choices")
	}
	return &Response{
		Content: out.Choices[0].Message.Content,
		Model:   out.Model,
		Usage:   Usage{PromptTokens: out.Usage.PromptTokens, CompletionTokens: out.Usage.CompletionTokens},
	}, nil
}

type openAIChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream implements Streamer.
func (c *OpenAI) Stream(ctx context.Context, req Request, onDelta func(string)) (*Response, error) {
	resp, err := c.transport().post(ctx, c.endpoint(), c.headers(), c.payload(req, true))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{}
	var b strings.Builder
	errDone := errors.New("done")
	err = readSSE(resp.Body, func(_, data string) error {
		if data == "[DONE]" {
			return errDone
		}
		var ch openAIChunk
		if err := json.Unmarshal([]byte(data), &ch); err != nil {
			return err
		}
		if ch.Model != "" {
			out.Model = ch.Model
		}
		for _, choice := range ch.Choices {
			if d := choice.Delta.Content; d != "" {
				b.WriteString(d)
				if onDelta != nil {
					onDelta(d)
				}
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return nil, err
	}
	out.Content = b.String()
	return out, nil
}

// sanitizeName keeps the characters OpenAI accepts in a schema name.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "output"
	}
	return b.String()
}
