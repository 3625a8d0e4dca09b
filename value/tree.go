// Package value defines the value trees exchanged between the validator, the
// completion invoker and the exporter.
//
// A tree node is one of:
//
//	string, int64, float64, bool, nil, *Tree, List
//
// Decoded input may additionally carry json.Number and map[string]any until
// it has been normalized by a validator.
package value

import (
	"bytes"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Tree is a string-keyed mapping that remembers insertion order.
type Tree struct {
	keys []string
	vals map[string]any
}

// NewTree returns an empty tree with room for n keys.
func NewTree(n int) *Tree {
	return &Tree{keys: make([]string, 0, n), vals: make(map[string]any, n)}
}

// Set stores v under k. Re-setting an existing key keeps its position.
func (t *Tree) Set(k string, v any) {
	if t.vals == nil {
		t.vals = map[string]any{}
	}
	if _, ok := t.vals[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.vals[k] = v
}

// Get returns the value stored under k.
func (t *Tree) Get(k string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.vals[k]
	return v, ok
}

// Keys returns keys in insertion order. The slice must not be modified.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return t.keys
}

// Len reports the number of keys.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Map converts the tree (recursively) into plain Go maps and slices.
func (t *Tree) Map() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		out[k] = Plain(t.vals[k])
	}
	return out
}

// MarshalJSON writes keys in insertion order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(t.vals[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// List is a sequence whose elements carry no declared type. Elements are
// passed through validation untouched.
type List []any

// FromMap builds a tree from a map, ordering keys lexically. Nested maps and
// slices are converted as well.
func FromMap(m map[string]any) *Tree {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := NewTree(len(keys))
	for _, k := range keys {
		t.Set(k, From(m[k]))
	}
	return t
}

// From converts plain maps and slices into Tree and List nodes.
func From(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return FromMap(x)
	case []any:
		out := make(List, len(x))
		for i := range x {
			out[i] = From(x[i])
		}
		return out
	default:
		return v
	}
}

// Plain is the inverse of From: Tree becomes map[string]any and List
// becomes []any.
func Plain(v any) any {
	switch x := v.(type) {
	case *Tree:
		return x.Map()
	case List:
		out := make([]any, len(x))
		for i := range x {
			out[i] = Plain(x[i])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = Plain(x[i])
		}
		return out
	default:
		return v
	}
}

// MarshalYAML emits a mapping node that keeps insertion order.
func (t *Tree) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if t == nil {
		return n, nil
	}
	for _, k := range t.keys {
		vn, err := yamlNode(t.vals[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
	}
	return n, nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case json.Number:
		tag := "!!float"
		if _, err := x.Int64(); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: x.String()}, nil
	case List:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			in, err := yamlNode(it)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, in)
		}
		return seq, nil
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}
