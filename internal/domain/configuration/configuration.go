// Package configuration validates connector configuration schemas against a
// closed grammar of field types, display hints, and constraint predicates.
//
// A schema is a map from field name to a field descriptor. Schemas are
// validated as a whole at the wire boundary (DecodeSchema) and replaced
// wholesale on update; there is no field-level merge.
package configuration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// FieldType is the declared value type of a configuration field.
type FieldType string

// Closed set of configuration field types.
const (
	FieldTypeString  FieldType = "str"
	FieldTypeInteger FieldType = "int"
	FieldTypeList    FieldType = "list"
	FieldTypeBoolean FieldType = "bool"
)

// Valid returns true if the field type is one of the known values.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeList, FieldTypeBoolean:
		return true
	default:
		return false
	}
}

// DisplayType is the UI rendering hint for a configuration field.
type DisplayType string

// Closed set of display hints.
const (
	DisplayTextbox  DisplayType = "textbox"
	DisplayTextarea DisplayType = "textarea"
	DisplayNumeric  DisplayType = "numeric"
	DisplayToggle   DisplayType = "toggle"
	DisplayDropdown DisplayType = "dropdown"
)

// Valid returns true if the display type is one of the known values.
func (d DisplayType) Valid() bool {
	switch d {
	case DisplayTextbox, DisplayTextarea, DisplayNumeric, DisplayToggle, DisplayDropdown:
		return true
	default:
		return false
	}
}

// SelectOption is one selectable value for dropdown-style fields.
type SelectOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Dependency gates a field on another field holding a specific value.
type Dependency struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Field describes one configuration field: its type, rendering, constraints,
// and current value.
//
// Tooltip and DefaultValue are tri-state: a nil RawMessage means the key was
// absent, the literal "null" means it was explicitly null, and both survive a
// round trip unchanged. Value is always serialized (null when unset).
type Field struct {
	Type           FieldType       `json:"type"`
	Display        DisplayType     `json:"display"`
	Label          string          `json:"label"`
	Order          int             `json:"order"`
	Required       bool            `json:"required"`
	Sensitive      bool            `json:"sensitive"`
	UIRestrictions []string        `json:"ui_restrictions"`
	Validations    Validations     `json:"validations"`
	Options        []SelectOption  `json:"options,omitempty"`
	DependsOn      []Dependency    `json:"depends_on,omitempty"`
	Tooltip        json.RawMessage `json:"tooltip,omitempty"`
	Value          any             `json:"value"`
	DefaultValue   json.RawMessage `json:"default_value,omitempty"`
}

// Schema maps field names to their descriptors.
type Schema map[string]Field

// requiredAttributes are checked in this order; the first absent or
// explicitly-null attribute produces the MissingAttributeError.
var requiredAttributes = []string{
	"type",
	"display",
	"label",
	"order",
	"required",
	"sensitive",
	"ui_restrictions",
	"validations",
}

// DecodeSchema parses and validates a full configuration field map.
//
// Validation is deterministic: fields are visited in ascending name order and
// attributes in declaration order, so the same malformed payload always yields
// the same error. On success the returned schema round-trips byte-compatibly
// with the input (modulo JSON key ordering).
func DecodeSchema(data []byte) (Schema, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(Schema, len(raw))
	for _, name := range names {
		field, err := decodeField(name, raw[name])
		if err != nil {
			return nil, err
		}
		schema[name] = field
	}
	return schema, nil
}

// Validate re-checks the closed enumerations of an already-decoded schema.
// Attribute presence can only be verified at the wire boundary (DecodeSchema);
// use this for schemas assembled programmatically.
func (s Schema) Validate() error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := s[name]
		if !field.Type.Valid() {
			return &UnknownFieldTypeError{Field: name, Value: string(field.Type)}
		}
		if !field.Display.Valid() {
			return &UnknownDisplayTypeError{Field: name, Value: string(field.Display)}
		}
	}
	return nil
}

func decodeField(name string, raw json.RawMessage) (Field, error) {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return Field{}, fmt.Errorf("configuration field [%s]: %w", name, err)
	}

	for _, attr := range requiredAttributes {
		value, ok := attrs[attr]
		if !ok || isJSONNull(value) {
			return Field{}, &MissingAttributeError{Field: name, Attribute: attr}
		}
	}

	var field Field
	if err := json.Unmarshal(raw, &field); err != nil {
		var unknownConstraint *UnknownConstraintTypeError
		if errors.As(err, &unknownConstraint) {
			unknownConstraint.Field = name
			return Field{}, unknownConstraint
		}
		return Field{}, fmt.Errorf("configuration field [%s]: %w", name, err)
	}

	if !field.Type.Valid() {
		return Field{}, &UnknownFieldTypeError{Field: name, Value: string(field.Type)}
	}
	if !field.Display.Valid() {
		return Field{}, &UnknownDisplayTypeError{Field: name, Value: string(field.Display)}
	}
	return field, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
