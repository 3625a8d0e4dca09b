package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "actual", "name" or "format").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalog = map[string]map[string]string{
	"en": {
		"empty_field_name":    "field name must not be empty",
		"duplicate_field":     "duplicate field {name}",
		"invalid_kind":        "unsupported field type {value}",
		"missing_children":    "object field {name} needs nested fields",
		"unexpected_children": "only object fields may declare nested fields",
		"invalid_default":     "invalid default value: {reason}",
		"invalid_schema":      "malformed schema definition: {reason}",
		"missing_field":       "required field missing",
		"type_mismatch":       "expected {expected}, got {actual}",
		"unknown_field":       "field is not declared in the schema",
		"duplicate_key":       "duplicate key",
		"parse_error":         "parse error",
		"truncated":           "input exceeds size limit",
		"unsupported_format":  "unsupported export format {format}",
	},
	"ja": {
		"empty_field_name":    "フィールド名が空です",
		"duplicate_field":     "フィールド {name} が重複しています",
		"invalid_kind":        "未対応の型です: {value}",
		"missing_children":    "オブジェクト型フィールド {name} に子フィールドがありません",
		"unexpected_children": "子フィールドを持てるのはオブジェクト型のみです",
		"invalid_default":     "デフォルト値が不正です: {reason}",
		"invalid_schema":      "スキーマ定義が不正です: {reason}",
		"missing_field":       "必須フィールドが不足しています",
		"type_mismatch":       "{expected} を期待しましたが {actual} でした",
		"unknown_field":       "スキーマに存在しないフィールドです",
		"duplicate_key":       "キーが重複しています",
		"parse_error":         "解析エラー",
		"truncated":           "入力がサイズ上限を超えています",
		"unsupported_format":  "未対応のエクスポート形式です: {format}",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
