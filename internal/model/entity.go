// Package model defines the typed entities extracted from content documents.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Entity is one item of a typed collection (a poem, a character, a scene, ...).
// Entities are derived from a snapshot and are never mutated after extraction.
type Entity struct {
	// Type is the declared entity type name (e.g., "poem", "character").
	Type string `json:"type"`

	// ID is unique within Type. Global uniqueness is not required.
	ID string `json:"id"`

	// Title is the display name used for loose textual references.
	Title string `json:"title,omitempty"`

	// Aliases are alternate titles indexed alongside Title.
	Aliases []string `json:"aliases,omitempty"`

	// Category is the group key for entities flattened from a grouped collection.
	Category string `json:"category,omitempty"`

	// Document is the logical name of the document holding this entity.
	Document string `json:"document"`

	// Position is the 0-indexed position within the flattened collection.
	Position int `json:"position"`

	// Fields holds the raw decoded JSON object.
	Fields map[string]any `json:"fields,omitempty"`
}

// Key returns "type:id", unique across all types.
func (e *Entity) Key() string {
	return e.Type + ":" + e.ID
}

// Label returns a short human-readable label ("poem P1").
func (e *Entity) Label() string {
	return e.Type + " " + e.ID
}

// Field returns the raw value of a field.
func (e *Entity) Field(name string) (any, bool) {
	if e.Fields == nil {
		return nil, false
	}
	v, ok := e.Fields[name]
	return v, ok
}

// Has reports whether a field is present and non-empty.
func (e *Entity) Has(name string) bool {
	v, ok := e.Field(name)
	return ok && !IsEmpty(v)
}

// StringField returns a field rendered as a string, or "" when absent.
func (e *Entity) StringField(name string) string {
	v, ok := e.Field(name)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

// NumberField returns a field as a float64 when it holds a number or a
// numeric string.
func (e *Entity) NumberField(name string) (float64, bool) {
	v, ok := e.Field(name)
	if !ok {
		return 0, false
	}
	return Number(v)
}

// IsEmpty reports whether a decoded JSON value carries no content:
// null, "", whitespace-only strings, empty arrays and empty objects.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// ScalarString renders scalar JSON values as strings. Arrays and objects
// render as "".
func ScalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Number converts a decoded JSON value into a float64.
func Number(v any) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Describe renders any decoded JSON value compactly for messages.
func Describe(v any) string {
	if s := ScalarString(v); s != "" {
		return s
	}
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return `""`
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
