package engine

import (
	"encoding/json"
	"io"

	"github.com/reoring/instruct/value"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// DecodeTree builds a value tree from the token source. Objects become
// *value.Tree (key order preserved), arrays become value.List and numbers stay
// json.Number so integral checks happen later without precision loss.
func DecodeTree(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(src, tok)
	if err != nil {
		return nil, err
	}
	// trailing data after the first value is an error
	if _, err := src.NextToken(); err != io.EOF {
		if err == nil {
			return nil, IssueError{SimpleIssue{Code: "parse_error", Path: "", Message: "unexpected data after top-level value"}}
		}
		return nil, err
	}
	return v, nil
}

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func decodeObject(src TokenSource) (any, error) {
	t := value.NewTree(4)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofToUnexpected(err)
		}
		if tok.Kind == KindEndObject {
			return t, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, eofToUnexpected(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		t.Set(tok.String, v)
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := value.List{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofToUnexpected(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
