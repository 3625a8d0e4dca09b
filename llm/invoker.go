package llm

import (
	"context"
	"errors"
	"io"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/value"
	"github.com/sirupsen/logrus"
)

// DefaultMaxRetries is the number of repair attempts after the first answer.
const DefaultMaxRetries = 2

// Invoker runs a completion and validates the answer against a compiled
// schema. When the answer fails to decode or validate it asks the provider
// again with the failure appended, up to MaxRetries times. Provider errors are
// returned as they are.
type Invoker struct {
	Provider   Provider
	MaxRetries int
	// Decode configures how the extracted JSON is decoded. The zero value
	// rejects nothing; NewInvoker sets duplicate-key rejection.
	Decode instruct.DecodeOpt
	Logger logrus.FieldLogger
	// OnRetry is called before each repair attempt.
	OnRetry func(attempt int, err error)
}

// NewInvoker returns an Invoker with default retry and decode settings.
func NewInvoker(p Provider, logger logrus.FieldLogger) *Invoker {
	return &Invoker{Provider: p, MaxRetries: DefaultMaxRetries, Decode: instruct.DefaultDecodeOpt(), Logger: logger}
}

// Invoke returns the validated, normalized tree. The last decode or
// validation failure is returned unchanged when retries run out.
func (inv *Invoker) Invoke(ctx context.Context, v *instruct.Validator, req Request) (*value.Tree, error) {
	return inv.run(ctx, v, req, func(ctx context.Context, r Request) (*Response, error) {
		return inv.Provider.Complete(ctx, r)
	})
}

// InvokeStream is Invoke with text deltas forwarded to onDelta as they
// arrive. Providers that cannot stream deliver their whole answer as a single
// delta.
func (inv *Invoker) InvokeStream(ctx context.Context, v *instruct.Validator, req Request, onDelta func(string)) (*value.Tree, error) {
	return inv.run(ctx, v, req, func(ctx context.Context, r Request) (*Response, error) {
		if s, ok := inv.Provider.(Streamer); ok {
			return s.Stream(ctx, r, onDelta)
		}
		resp, err := inv.Provider.Complete(ctx, r)
		if err == nil && onDelta != nil {
			onDelta(resp.Content)
		}
		return resp, err
	})
}

func (inv *Invoker) run(ctx context.Context, v *instruct.Validator, req Request, call func(context.Context, Request) (*Response, error)) (*value.Tree, error) {
	if inv.Provider == nil {
		return nil, errors.New("invoker has no provider")
	}
	sys, err := SystemPrompt(v)
	if err != nil {
		return nil, err
	}
	req.Schema = v.JSONSchema()
	if req.SchemaName == "" {
		req.SchemaName = v.Title()
	}
	req.Messages = append([]Message{{Role: RoleSystem, Content: sys}}, req.Messages...)

	log := inv.logger().WithFields(logrus.Fields{"provider": inv.Provider.Name(), "schema": v.Title()})
	var lastErr error
	for attempt := 0; attempt <= inv.MaxRetries; attempt++ {
		if attempt > 0 && inv.OnRetry != nil {
			inv.OnRetry(attempt, lastErr)
		}
		resp, err := call(ctx, req)
		if err != nil {
			return nil, err
		}
		out, err := inv.accept(ctx, v, resp.Content)
		if err == nil {
			log.WithFields(logrus.Fields{"attempt": attempt + 1, "model": resp.Model}).Debug("completion validated")
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		log.WithFields(logrus.Fields{"attempt": attempt + 1, "error": err}).Info("completion rejected")
		req.Messages = append(req.Messages,
			Message{Role: RoleAssistant, Content: resp.Content},
			Message{Role: RoleUser, Content: RepairPrompt(err)},
		)
	}
	return nil, lastErr
}

func (inv *Invoker) accept(ctx context.Context, v *instruct.Validator, content string) (*value.Tree, error) {
	raw := ExtractJSON(content)
	if raw == "" {
		return nil, instruct.Issues{{Code: instruct.CodeParseError, Message: "no JSON object in completion"}}
	}
	tree, err := instruct.DecodeJSON([]byte(raw), inv.Decode)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, tree)
}

func (inv *Invoker) logger() logrus.FieldLogger {
	if inv.Logger != nil {
		return inv.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
