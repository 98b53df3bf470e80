package configuration

import "fmt"

// MissingAttributeError reports a field descriptor lacking a required
// attribute (absent key or explicit null).
type MissingAttributeError struct {
	Field     string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("configuration field [%s] is missing required attribute [%s]", e.Field, e.Attribute)
}

// UnknownFieldTypeError reports a field type outside the closed enumeration.
type UnknownFieldTypeError struct {
	Field string
	Value string
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("configuration field [%s] has unknown type [%s]", e.Field, e.Value)
}

// UnknownDisplayTypeError reports a display hint outside the closed
// enumeration.
type UnknownDisplayTypeError struct {
	Field string
	Value string
}

func (e *UnknownDisplayTypeError) Error() string {
	return fmt.Sprintf("configuration field [%s] has unknown display type [%s]", e.Field, e.Value)
}

// UnknownConstraintTypeError reports a validation predicate outside the closed
// enumeration. Field is filled in by the schema decoder; it is empty when the
// error is raised while decoding a bare validations list.
type UnknownConstraintTypeError struct {
	Field string
	Value string
}

func (e *UnknownConstraintTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unknown validation type [%s]", e.Value)
	}
	return fmt.Sprintf("configuration field [%s] has unknown validation type [%s]", e.Field, e.Value)
}
