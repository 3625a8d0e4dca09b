package instruct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/instruct/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Compile time (SchemaError)
	CodeEmptyFieldName     = "empty_field_name"
	CodeDuplicateField     = "duplicate_field"
	CodeInvalidKind        = "invalid_kind"
	CodeMissingChildren    = "missing_children"
	CodeUnexpectedChildren = "unexpected_children"
	CodeInvalidDefault     = "invalid_default"
	CodeInvalidSchema      = "invalid_schema"
	// Validate time (ValidationError)
	CodeMissingField = "missing_field"
	CodeTypeMismatch = "type_mismatch"
	CodeUnknownField = "unknown_field"
	// Input decoding
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// Issue is the wire shape of a single error entry.
type Issue struct {
	Path    string         `json:"path"` // Dotted location from the root (for example: address.city).
	Code    string         `json:"code"` // One of the codes listed above.
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// Issues is a collection of errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, displayPath(it.Path))
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// IssueCarrier is implemented by typed errors that can describe themselves as
// an Issue.
type IssueCarrier interface {
	error
	Issue() Issue
}

// AsIssues extracts Issues from an error. Typed errors implementing
// IssueCarrier are converted into a single-entry Issues.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var ic IssueCarrier
	if errors.As(err, &ic) {
		return Issues{ic.Issue()}, true
	}
	return nil, false
}

// SchemaError reports a malformed schema definition at compile time.
type SchemaError struct {
	Code  string
	Path  string // dotted path of the offending field
	Name  string // field name, when known
	Value string // offending value (kind name, default reason)
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s at %s: %s", e.Code, displayPath(e.Path), e.message())
}

func (e *SchemaError) message() string {
	return i18n.T(e.Code, map[string]string{"name": e.Name, "value": e.Value, "reason": e.Value})
}

// Issue implements IssueCarrier.
func (e *SchemaError) Issue() Issue {
	params := map[string]any{}
	if e.Name != "" {
		params["name"] = e.Name
	}
	if e.Value != "" {
		params["value"] = e.Value
	}
	if len(params) == 0 {
		params = nil
	}
	return Issue{Path: e.Path, Code: e.Code, Message: e.message(), Params: params}
}

// ValidationError reports a value tree that does not satisfy a validator.
type ValidationError struct {
	Code     string
	Path     string
	Expected Kind   // set for type_mismatch
	Actual   string // kind name of the offending value, set for type_mismatch
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s at %s: %s", e.Code, displayPath(e.Path), e.message())
}

func (e *ValidationError) message() string {
	return i18n.T(e.Code, map[string]string{"expected": string(e.Expected), "actual": e.Actual})
}

// Issue implements IssueCarrier.
func (e *ValidationError) Issue() Issue {
	it := Issue{Path: e.Path, Code: e.Code, Message: e.message()}
	if e.Code == CodeTypeMismatch {
		it.Params = map[string]any{"expected": string(e.Expected), "actual": e.Actual}
	}
	if e.Code == CodeMissingField {
		it.Hint = "add the field or mark it as not required"
	}
	return it
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}
