package instruct

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/instruct/value"
)

// Kind is the declared type of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
	KindList    Kind = "list"
	KindObject  Kind = "object"
	// KindMap is a free-form string-keyed mapping. Its entries are passed
	// through unvalidated, like list elements.
	KindMap Kind = "map"
)

// Kinds lists the canonical kinds in documentation order.
var Kinds = []Kind{KindString, KindInteger, KindFloat, KindBoolean, KindList, KindObject, KindMap}

var kindAliases = map[string]Kind{
	"string":  KindString,
	"str":     KindString,
	"integer": KindInteger,
	"int":     KindInteger,
	"float":   KindFloat,
	"number":  KindFloat,
	"double":  KindFloat,
	"boolean": KindBoolean,
	"bool":    KindBoolean,
	"list":    KindList,
	"array":   KindList,
	"object":  KindObject,
	"nested":  KindObject,
	"map":     KindMap,
	"dict":    KindMap,
	"mapping": KindMap,
}

// ParseKind normalizes a kind name or alias (case-insensitive).
func ParseKind(s string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Valid reports whether k is a canonical kind.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindInteger, KindFloat, KindBoolean, KindList, KindObject, KindMap:
		return true
	}
	return false
}

// JSONType returns the JSON Schema type name for k.
func (k Kind) JSONType() string {
	switch k {
	case KindFloat:
		return "number"
	case KindList:
		return "array"
	case KindMap:
		return "object"
	default:
		return string(k)
	}
}

// kindOf names the kind of a raw value for type_mismatch reports.
func kindOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return "integer"
		}
		return "float"
	case float32, float64:
		return "float"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case *value.Tree, map[string]any:
		return "object"
	case value.List, []any:
		return "list"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return "object"
		}
	}
	return fmt.Sprintf("%T", v)
}

// asInteger accepts integral numbers only. 3.0 becomes 3; 3.5 and values
// outside the int64 range are rejected.
func asInteger(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return uintToInt(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return uintToInt(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// asFloat widens any numeric to float64.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	}
	return 0, false
}

// asList accepts any sequence and returns it as an opaque List.
func asList(v any) (value.List, bool) {
	switch x := v.(type) {
	case value.List:
		return x, true
	case []any:
		return value.List(x), true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make(value.List, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
