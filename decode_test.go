package instruct_test

import (
	"strings"
	"testing"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/value"
)

func TestDecodeJSON_KeepsKeyOrder(t *testing.T) {
	v := decode(t, `{"z":1,"a":{"y":true,"b":null}}`)
	tr := v.(*value.Tree)
	if got := marshal(t, tr); got != `{"z":1,"a":{"y":true,"b":null}}` {
		t.Fatalf("order lost: %s", got)
	}
}

func TestDecodeJSON_DuplicateKeys(t *testing.T) {
	_, err := instruct.DecodeJSON([]byte(`{"a":{"b":1,"b":2}}`), instruct.DefaultDecodeOpt())
	iss, ok := instruct.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != instruct.CodeDuplicateKey || iss[0].Path != "a.b" {
		t.Fatalf("unexpected issues %v", err)
	}

	var warned []instruct.Issue
	opt := instruct.DecodeOpt{
		Strictness: instruct.Strictness{OnDuplicateKey: instruct.Warn},
		OnIssue:    func(it instruct.Issue) { warned = append(warned, it) },
	}
	if _, err := instruct.DecodeJSON([]byte(`{"a":1,"a":2}`), opt); err != nil {
		t.Fatalf("warn mode should not fail: %v", err)
	}
	if len(warned) != 1 || warned[0].Code != instruct.CodeDuplicateKey {
		t.Fatalf("want one warning, got %v", warned)
	}

	if _, err := instruct.DecodeJSON([]byte(`{"a":1,"a":2}`)); err != nil {
		t.Fatalf("ignore mode should not fail: %v", err)
	}
}

func TestDecodeJSON_Limits(t *testing.T) {
	_, err := instruct.DecodeJSON([]byte(`{"a":"0123456789"}`), instruct.DecodeOpt{MaxBytes: 8})
	if iss, ok := instruct.AsIssues(err); !ok || iss[0].Code != instruct.CodeTruncated {
		t.Fatalf("want truncated, got %v", err)
	}
	_, err = instruct.DecodeJSONReader(strings.NewReader(`{"a":"0123456789"}`), instruct.DecodeOpt{MaxBytes: 8})
	if iss, ok := instruct.AsIssues(err); !ok || iss[0].Code != instruct.CodeTruncated {
		t.Fatalf("want truncated from reader, got %v", err)
	}
	_, err = instruct.DecodeJSON([]byte(`{"a":{"b":{"c":1}}}`), instruct.DecodeOpt{MaxDepth: 2})
	if iss, ok := instruct.AsIssues(err); !ok || iss[0].Code != instruct.CodeParseError {
		t.Fatalf("want parse_error for depth, got %v", err)
	}
	if _, err := instruct.DecodeJSONReader(strings.NewReader(`{"a":1}`), instruct.DecodeOpt{MaxBytes: 64}); err != nil {
		t.Fatalf("small input rejected: %v", err)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	for _, in := range []string{``, `{"a":`, `{"a":1} x`} {
		_, err := instruct.DecodeJSON([]byte(in))
		iss, ok := instruct.AsIssues(err)
		if !ok || iss[0].Code != instruct.CodeParseError {
			t.Fatalf("%q: want parse_error, got %v", in, err)
		}
	}
}
