package instruct

import (
	"bytes"
	"errors"
	"io"

	eng "github.com/reoring/instruct/internal/engine"
	"github.com/reoring/instruct/internal/source"
)

// DecodeJSON decodes a single JSON value into a value tree. Objects become
// *value.Tree with key order preserved, arrays become value.List and numbers
// stay json.Number. Errors are returned as Issues.
func DecodeJSON(data []byte, opts ...DecodeOpt) (any, error) {
	opt := lastDecodeOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	return decodeFrom(source.NewBytes(data), opt)
}

// DecodeJSONReader is DecodeJSON over a stream. When MaxBytes is set at most
// MaxBytes+1 bytes are read before the size cap is reported.
func DecodeJSONReader(r io.Reader, opts ...DecodeOpt) (any, error) {
	opt := lastDecodeOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, singleIssue(CodeParseError, err.Error())
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, singleIssue(CodeTruncated, "max bytes exceeded")
		}
		r = bytes.NewReader(data)
	}
	return decodeFrom(source.NewReader(r), opt)
}

func lastDecodeOpt(opts []DecodeOpt) DecodeOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return DecodeOpt{}
}

func decodeFrom(src eng.TokenSource, opt DecodeOpt) (any, error) {
	var sink func(eng.SimpleIssue)
	if opt.OnIssue != nil {
		sink = func(si eng.SimpleIssue) {
			opt.OnIssue(Issue{Path: si.Path, Code: si.Code, Message: si.Message})
		}
	}
	enforced := eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink:   sink,
	})
	v, err := eng.DecodeTree(enforced)
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

func toIssues(err error) Issues {
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	if errors.Is(err, io.EOF) {
		return singleIssue(CodeParseError, "empty input")
	}
	return singleIssue(CodeParseError, err.Error())
}

func singleIssue(code, msg string) Issues { return AppendIssues(nil, Issue{Code: code, Message: msg}) }
