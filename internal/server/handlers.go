package server

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/export"
	"github.com/reoring/instruct/llm"
	"github.com/reoring/instruct/middleware"
	echomw "github.com/reoring/instruct/middleware/echo"
	"github.com/reoring/instruct/value"
)

func (s *Server) handleIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "instruct",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"POST /api/schema/validate",
			"POST /api/completion",
			"POST /api/export",
			"POST /api/validate",
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSchemaValidate(c echo.Context) error {
	body, ok := echomw.GetTree(c)
	if !ok {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", notObject(""))
	}
	spec, err := instruct.SpecFromValue(body)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", err)
	}
	rep, err := instruct.ReportFor(spec, instruct.WithUnknownPolicy(s.cfg.UnknownPolicy()))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleValidate(c echo.Context) error {
	ctx := c.Request().Context()
	body, ok := echomw.GetTree(c)
	if !ok {
		return s.fail(c, http.StatusBadRequest, "Invalid request", notObject(""))
	}
	if _, err := validateEnvelope.Validate(ctx, body); err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid request", err)
	}
	v, err := s.compile(body)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", err)
	}
	data, ok := body.Get("data")
	if !ok {
		return s.fail(c, http.StatusBadRequest, "Invalid request", &instruct.ValidationError{Code: instruct.CodeMissingField, Path: "data"})
	}
	out, err := v.Validate(ctx, data)
	if err != nil {
		return s.fail(c, http.StatusUnprocessableEntity, "Validation failed", prefixPath(err, "data"))
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true, "result": out})
}

func (s *Server) handleExport(c echo.Context) error {
	ctx := c.Request().Context()
	body, ok := echomw.GetTree(c)
	if !ok {
		return s.fail(c, http.StatusBadRequest, "Invalid request", notObject(""))
	}
	env, err := exportEnvelope.Validate(ctx, body)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid request", err)
	}
	data, _ := body.Get("data")
	switch data.(type) {
	case *value.Tree, value.List:
	case nil:
		return s.fail(c, http.StatusBadRequest, "Invalid request", &instruct.ValidationError{Code: instruct.CodeMissingField, Path: "data"})
	default:
		return s.fail(c, http.StatusBadRequest, "Invalid request", notObject("data"))
	}
	format, err := export.ParseFormat(getString(env, "format"))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid format. Use 'json' or 'markdown'", err)
	}
	title := getString(env, "title")
	content, err := export.Render(data, format, export.WithTitle(title))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Export failed", err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"content":    content,
		"filename":   export.Filename(title, format),
		"media_type": export.MediaType(format),
	})
}

func (s *Server) handleCompletion(c echo.Context) error {
	ctx := c.Request().Context()
	body, ok := echomw.GetTree(c)
	if !ok {
		return s.fail(c, http.StatusBadRequest, "Invalid request", notObject(""))
	}
	req, err := parseCompletionRequest(ctx, body)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid request", err)
	}
	spec, err := instruct.SpecFromValue(req.schemaDef)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", err)
	}
	v, err := instruct.Compile(spec, instruct.WithUnknownPolicy(s.cfg.UnknownPolicy()))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid schema", err)
	}
	provider, err := s.newProvider(s.providerOptions(req))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "Invalid provider", err)
	}
	llmReq := llm.Request{
		Messages:    req.messages,
		Model:       req.model,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
	}
	if req.maxTokens > 0 {
		llmReq.MaxTokens = req.maxTokens
	}
	if req.temperature != nil {
		llmReq.Temperature = *req.temperature
	}

	log := s.log.WithFields(logrus.Fields{"provider": provider.Name(), "schema": v.Title(), "stream": req.stream})
	inv := llm.NewInvoker(provider, log)
	inv.MaxRetries = s.cfg.LLM.MaxRetries
	inv.Decode = middleware.DefaultDecodeOpt(s.cfg.Limits.MaxDepth)

	if req.stream {
		return s.streamCompletion(c, inv, v, llmReq)
	}
	out, err := inv.Invoke(ctx, v, llmReq)
	if err != nil {
		return s.fail(c, completionStatus(err), "Completion error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"result": out})
}

// streamCompletion answers with server-sent events: "delta" for each text
// chunk, "retry" before each repair attempt, then a final "result" or "error".
func (s *Server) streamCompletion(c echo.Context, inv *llm.Invoker, v *instruct.Validator, req llm.Request) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			s.log.WithError(err).Warn("encode event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
		w.Flush()
	}
	inv.OnRetry = func(attempt int, err error) {
		send("retry", map[string]any{"attempt": attempt, "issues": issuesOf(err)})
	}
	out, err := inv.InvokeStream(c.Request().Context(), v, req, func(delta string) {
		send("delta", delta)
	})
	if err != nil {
		send("error", middleware.ErrorPayload("Completion error: "+err.Error(), issuesOf(err)))
		return nil
	}
	send("result", map[string]any{"result": out})
	return nil
}

func (s *Server) providerOptions(req *completionRequest) llm.Options {
	opt := s.cfg.ProviderOptions(req.provider, req.model, req.apiKey)
	opt.HTTPClient = s.httpClient
	opt.Logger = s.log
	return opt
}

func (s *Server) compile(body *value.Tree) (*instruct.Validator, error) {
	raw, _ := body.Get("schema_def")
	spec, err := instruct.SpecFromValue(raw)
	if err != nil {
		return nil, err
	}
	return instruct.Compile(spec, instruct.WithUnknownPolicy(s.cfg.UnknownPolicy()))
}

// completionStatus maps invoker failures: data that never validated is 422,
// everything else (provider, transport, undecodable output) is 502.
func completionStatus(err error) int {
	var ve *instruct.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (s *Server) fail(c echo.Context, status int, detail string, err error) error {
	iss := issuesOf(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("status", status).Warn(detail)
	}
	return c.JSON(status, middleware.ErrorPayload(detail+": "+err.Error(), iss))
}

func issuesOf(err error) []instruct.Issue {
	if iss, ok := instruct.AsIssues(err); ok {
		return iss
	}
	return []instruct.Issue{{Code: "error", Message: err.Error()}}
}

func notObject(path string) error {
	return &instruct.ValidationError{Code: instruct.CodeTypeMismatch, Path: path, Expected: instruct.KindObject, Actual: "non-object"}
}
