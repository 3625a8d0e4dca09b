package jsonschema

import (
	json "github.com/goccy/go-json"
)

// Schema is a minimal JSON Schema representation used for export and as the
// output-shape contract handed to completion providers.
type Schema struct {
	// Core
	Schema      string  `json:"$schema,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Type        TypeSet `json:"type,omitempty"`
	Default     any     `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	// PropertyOrdering lists property names in declaration order. Providers
	// that honor it (Gemini) keep generated keys in this order.
	PropertyOrdering []string `json:"propertyOrdering,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`
}

// TypeSet is the "type" keyword: a single name or a list of names.
type TypeSet []string

// Of returns a TypeSet for the given type names.
func Of(names ...string) TypeSet { return TypeSet(names) }

// Has reports whether name is part of the set.
func (t TypeSet) Has(name string) bool {
	for _, n := range t {
		if n == name {
			return true
		}
	}
	return false
}

// MarshalJSON renders one type as a string and several as an array.
func (t TypeSet) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON accepts both forms.
func (t *TypeSet) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*t = TypeSet{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*t = TypeSet(many)
	return nil
}

// Bool returns a pointer to b, for AdditionalProperties.
func Bool(b bool) *bool { return &b }
