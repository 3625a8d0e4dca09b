// Package source adapts JSON decoders into engine token sources.
package source

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/instruct/internal/engine"
)

// slot is what an open container expects next.
type slot uint8

const (
	inArray slot = iota
	wantKey
	wantValue
)

// tokens feeds go-json decoder tokens to the engine. Decoder.Token does not
// tell keys from string values, so open holds one slot per open container.
type tokens struct {
	dec  *j.Decoder
	open []slot
}

// NewReader wraps an io.Reader into an engine.TokenSource backed by go-json.
// Numbers are kept as their literal text.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &tokens{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource backed by go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (t *tokens) NextToken() (eng.Token, error) {
	raw, err := t.dec.Token()
	if err != nil {
		return eng.Token{Offset: -1}, err
	}
	tok := eng.Token{Offset: -1}
	switch x := raw.(type) {
	case j.Delim:
		switch x {
		case '{':
			t.open = append(t.open, wantKey)
			tok.Kind = eng.KindBeginObject
			return tok, nil
		case '[':
			t.open = append(t.open, inArray)
			tok.Kind = eng.KindBeginArray
			return tok, nil
		case '}':
			tok.Kind = eng.KindEndObject
		default:
			tok.Kind = eng.KindEndArray
		}
		if n := len(t.open); n > 0 {
			t.open = t.open[:n-1]
		}
	case string:
		if n := len(t.open); n > 0 && t.open[n-1] == wantKey {
			t.open[n-1] = wantValue
			tok.Kind, tok.String = eng.KindKey, x
			return tok, nil
		}
		tok.Kind, tok.String = eng.KindString, x
	case bool:
		tok.Kind, tok.Bool = eng.KindBool, x
	case j.Number:
		tok.Kind, tok.Number = eng.KindNumber, string(x)
	case float64:
		tok.Kind, tok.Number = eng.KindNumber, strconv.FormatFloat(x, 'g', -1, 64)
	default:
		tok.Kind = eng.KindNull
	}
	// a complete value inside an object is followed by a key
	if n := len(t.open); n > 0 && t.open[n-1] == wantValue {
		t.open[n-1] = wantKey
	}
	return tok, nil
}

func (t *tokens) Location() int64 { return -1 }
