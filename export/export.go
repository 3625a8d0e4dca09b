// Package export renders validated value trees as JSON or Markdown documents.
package export

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/reoring/instruct"
	"github.com/reoring/instruct/i18n"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// DefaultTitle heads Markdown documents when no title is given.
const DefaultTitle = "Result"

// CodeUnsupportedFormat is reported for unknown format names.
const CodeUnsupportedFormat = "unsupported_format"

// Error reports an export failure.
type Error struct {
	Code   string
	Format string
}

func (e *Error) Error() string {
	return "export: " + i18n.T(e.Code, map[string]string{"format": e.Format})
}

// Issue implements instruct.IssueCarrier.
func (e *Error) Issue() instruct.Issue {
	return instruct.Issue{
		Code:    e.Code,
		Message: i18n.T(e.Code, map[string]string{"format": e.Format}),
		Params:  map[string]any{"format": e.Format},
	}
}

// ParseFormat accepts "json", "markdown" and "md" (case-insensitive).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", &Error{Code: CodeUnsupportedFormat, Format: name}
}

type options struct {
	compact bool
	title   string
}

// Option configures Render.
type Option func(*options)

// WithCompact renders JSON on a single line.
func WithCompact() Option { return func(o *options) { o.compact = true } }

// WithTitle sets the Markdown heading. Empty titles fall back to DefaultTitle.
func WithTitle(title string) Option { return func(o *options) { o.title = title } }

// Render renders tree in the given format. Declared key order of *value.Tree
// input is kept; plain map keys are sorted.
func Render(tree any, format Format, opts ...Option) (string, error) {
	o := options{title: DefaultTitle}
	for _, opt := range opts {
		opt(&o)
	}
	if o.title == "" {
		o.title = DefaultTitle
	}
	switch format {
	case FormatJSON:
		return renderJSON(tree, o.compact)
	case FormatMarkdown:
		return renderMarkdown(tree, o.title), nil
	}
	return "", &Error{Code: CodeUnsupportedFormat, Format: string(format)}
}

// RenderNamed parses name with ParseFormat and renders tree.
func RenderNamed(tree any, name string, opts ...Option) (string, error) {
	f, err := ParseFormat(name)
	if err != nil {
		return "", err
	}
	return Render(tree, f, opts...)
}

func renderJSON(tree any, compact bool) (string, error) {
	b, err := json.Marshal(orderedValue(tree))
	if err != nil {
		return "", fmt.Errorf("export json: %w", err)
	}
	if compact {
		return string(b), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return "", fmt.Errorf("export json: %w", err)
	}
	return buf.String(), nil
}

// Filename derives a download name from title: spaces become underscores and
// the format's extension is appended.
func Filename(title string, format Format) string {
	if title == "" {
		title = DefaultTitle
	}
	base := strings.ReplaceAll(title, " ", "_")
	if format == FormatMarkdown {
		return base + ".md"
	}
	return base + ".json"
}

// MediaType returns the content type served for format.
func MediaType(format Format) string {
	if format == FormatMarkdown {
		return "text/markdown"
	}
	return "application/json"
}
