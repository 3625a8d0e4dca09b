// Package mcpserver exposes schema checking, structured completion and export
// as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/export"
	"github.com/reoring/instruct/internal/config"
	"github.com/reoring/instruct/llm"
	"github.com/reoring/instruct/middleware"
	"github.com/reoring/instruct/value"
)

// Tool names.
const (
	ToolCreateSchema  = "create_schema"
	ToolRunCompletion = "run_completion"
	ToolExportResult  = "export_result"
)

// ProviderFactory builds the completion provider for one tool call.
type ProviderFactory func(llm.Options) (llm.Provider, error)

// Server owns the MCP server and the settings its tools run with.
type Server struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	httpClient  *http.Client
	newProvider ProviderFactory
	mcp         *mcp.Server
}

// Option configures New.
type Option func(*Server)

// WithProviderFactory replaces llm.NewProvider.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Server) { s.newProvider = f }
}

// New registers the tools on a fresh MCP server.
func New(cfg *config.Config, log logrus.FieldLogger, version string, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:         cfg,
		log:         log.WithField("component", "mcp"),
		httpClient:  &http.Client{Timeout: cfg.LLM.Timeout},
		newProvider: llm.NewProvider,
		mcp:         mcp.NewServer(&mcp.Implementation{Name: "instruct", Version: version}, nil),
	}
	for _, o := range opts {
		o(s)
	}
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolCreateSchema,
		Description: "Check a field-list schema definition and return its canonical form and JSON Schema",
		InputSchema: createSchemaInput(),
	}, s.createSchema)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolRunCompletion,
		Description: "Run a completion whose answer must match a field-list schema and return the validated result",
		InputSchema: runCompletionInput(),
	}, s.runCompletion)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolExportResult,
		Description: "Export a result to JSON or Markdown",
		InputSchema: exportResultInput(),
	}, s.exportResult)
	return s, nil
}

// MCP returns the underlying server, for connecting custom transports.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves one session on t until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	err := s.mcp.Run(ctx, t)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type createSchemaArgs struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Fields      json.RawMessage `json:"fields"`
}

type schemaResult struct {
	Status string `json:"status"`
	*instruct.SchemaReport
}

func (s *Server) createSchema(_ context.Context, _ *mcp.CallToolRequest, args createSchemaArgs) (*mcp.CallToolResult, any, error) {
	def := value.NewTree(3)
	if args.Name != "" {
		def.Set("name", args.Name)
	}
	def.Set("description", args.Description)
	fields, err := decodeArg(args.Fields)
	if err != nil {
		return s.failure(ToolCreateSchema, err)
	}
	def.Set("fields", fields)
	spec, err := instruct.SpecFromValue(def)
	if err != nil {
		return s.failure(ToolCreateSchema, err)
	}
	rep, err := instruct.ReportFor(spec, instruct.WithUnknownPolicy(s.cfg.UnknownPolicy()))
	if err != nil {
		return s.failure(ToolCreateSchema, err)
	}
	return textResult(schemaResult{Status: "success", SchemaReport: rep}, false)
}

type runCompletionArgs struct {
	Schema   json.RawMessage `json:"schema"`
	Prompt   string          `json:"prompt"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
}

type completionResult struct {
	Status string      `json:"status"`
	Result *value.Tree `json:"result"`
}

func (s *Server) runCompletion(ctx context.Context, _ *mcp.CallToolRequest, args runCompletionArgs) (*mcp.CallToolResult, any, error) {
	v, err := instruct.CompileForCompletion(args.Schema, instruct.WithUnknownPolicy(s.cfg.UnknownPolicy()))
	if err != nil {
		return s.failure(ToolRunCompletion, err)
	}
	opt := s.cfg.ProviderOptions(args.Provider, args.Model, "")
	opt.HTTPClient = s.httpClient
	opt.Logger = s.log
	p, err := s.newProvider(opt)
	if err != nil {
		return s.failure(ToolRunCompletion, err)
	}
	inv := llm.NewInvoker(p, s.log)
	inv.MaxRetries = s.cfg.LLM.MaxRetries
	inv.Decode = middleware.DefaultDecodeOpt(s.cfg.Limits.MaxDepth)
	out, err := inv.Invoke(ctx, v, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: args.Prompt}},
		Model:       opt.Model,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
	})
	if err != nil {
		return s.failure(ToolRunCompletion, err)
	}
	return textResult(completionResult{Status: "success", Result: out}, false)
}

type exportResultArgs struct {
	Data   json.RawMessage `json:"data"`
	Format string          `json:"format"`
	Title  string          `json:"title,omitempty"`
}

type exportResult struct {
	Status  string        `json:"status"`
	Content string        `json:"content"`
	Format  export.Format `json:"format"`
}

func (s *Server) exportResult(_ context.Context, _ *mcp.CallToolRequest, args exportResultArgs) (*mcp.CallToolResult, any, error) {
	data, err := decodeArg(args.Data)
	if err != nil {
		return s.failure(ToolExportResult, err)
	}
	f, err := export.ParseFormat(args.Format)
	if err != nil {
		return s.failure(ToolExportResult, err)
	}
	content, err := export.Render(data, f, export.WithTitle(args.Title))
	if err != nil {
		return s.failure(ToolExportResult, err)
	}
	return textResult(exportResult{Status: "success", Content: content, Format: f}, false)
}

// decodeArg re-decodes a raw argument so key order survives and duplicate
// keys are rejected.
func decodeArg(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return instruct.DecodeJSON(raw, instruct.DefaultDecodeOpt())
}

type errorResult struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Issues  []instruct.Issue `json:"issues,omitempty"`
}

// failure reports err as a tool error rather than a protocol error, so the
// calling model sees the issues.
func (s *Server) failure(tool string, err error) (*mcp.CallToolResult, any, error) {
	s.log.WithError(err).WithField("tool", tool).Info("tool call failed")
	res := errorResult{Status: "error", Message: err.Error()}
	if iss, ok := instruct.AsIssues(err); ok {
		res.Issues = iss
	}
	return textResult(res, true)
}

func textResult(v any, isError bool) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}
