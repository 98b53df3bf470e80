package configuration

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

// ConstraintType names one validation predicate.
type ConstraintType string

// Closed set of validation predicates.
const (
	ConstraintLessThan    ConstraintType = "less_than"
	ConstraintGreaterThan ConstraintType = "greater_than"
	ConstraintListType    ConstraintType = "list_type"
	ConstraintIncludedIn  ConstraintType = "included_in"
	ConstraintRegex       ConstraintType = "regex"
)

// Constraint is one validation predicate attached to a field. The union is
// sealed: every variant lives in this package and parseConstraint matches the
// full set, so an unhandled predicate is unrepresentable.
type Constraint interface {
	// Type returns the predicate's wire tag.
	Type() ConstraintType
	// Check applies the predicate to a field value.
	Check(value any) error

	// constraintValue returns the predicate-specific wire payload and seals
	// the union to this package.
	constraintValue() any
}

// GreaterThan requires a numeric value strictly above Limit.
type GreaterThan struct {
	Limit float64
}

// Type implements Constraint.
func (c GreaterThan) Type() ConstraintType { return ConstraintGreaterThan }

// Check implements Constraint.
func (c GreaterThan) Check(value any) error {
	n, ok := toNumber(value)
	if !ok {
		return fmt.Errorf("value %v is not numeric", value)
	}
	if n <= c.Limit {
		return fmt.Errorf("value %v must be greater than %v", value, c.Limit)
	}
	return nil
}

func (c GreaterThan) constraintValue() any { return c.Limit }

// LessThan requires a numeric value strictly below Limit.
type LessThan struct {
	Limit float64
}

// Type implements Constraint.
func (c LessThan) Type() ConstraintType { return ConstraintLessThan }

// Check implements Constraint.
func (c LessThan) Check(value any) error {
	n, ok := toNumber(value)
	if !ok {
		return fmt.Errorf("value %v is not numeric", value)
	}
	if n >= c.Limit {
		return fmt.Errorf("value %v must be less than %v", value, c.Limit)
	}
	return nil
}

func (c LessThan) constraintValue() any { return c.Limit }

// IncludedIn requires the value to be a member of Values.
type IncludedIn struct {
	Values []any
}

// Type implements Constraint.
func (c IncludedIn) Type() ConstraintType { return ConstraintIncludedIn }

// Check implements Constraint.
func (c IncludedIn) Check(value any) error {
	for _, allowed := range c.Values {
		if scalarEqual(value, allowed) {
			return nil
		}
	}
	return fmt.Errorf("value %v is not included in %v", value, c.Values)
}

func (c IncludedIn) constraintValue() any { return c.Values }

// ListType requires every element of a list value to match the named type.
type ListType struct {
	ElementType string
}

// Type implements Constraint.
func (c ListType) Type() ConstraintType { return ConstraintListType }

// Check implements Constraint.
func (c ListType) Check(value any) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("value %v is not a list", value)
	}
	for i, item := range items {
		ok, err := matchesFieldType(item, c.ElementType)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("list element %d (%v) is not of type [%s]", i, item, c.ElementType)
		}
	}
	return nil
}

func (c ListType) constraintValue() any { return c.ElementType }

// Regex requires a string value to match Pattern.
type Regex struct {
	Pattern string
}

// Type implements Constraint.
func (c Regex) Type() ConstraintType { return ConstraintRegex }

// Check implements Constraint.
func (c Regex) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("value %v is not a string", value)
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return fmt.Errorf("compile pattern [%s]: %w", c.Pattern, err)
	}
	if !re.MatchString(s) {
		return fmt.Errorf("value %q does not match pattern [%s]", s, c.Pattern)
	}
	return nil
}

func (c Regex) constraintValue() any { return c.Pattern }

// Validations is the ordered list of constraints attached to a field. Order is
// preserved through serialization.
type Validations []Constraint

type validationEntry struct {
	Type       ConstraintType `json:"type"`
	Constraint any            `json:"constraint"`
}

// MarshalJSON implements json.Marshaler, emitting {type, constraint} pairs.
func (v Validations) MarshalJSON() ([]byte, error) {
	entries := make([]validationEntry, 0, len(v))
	for _, c := range v {
		entries = append(entries, validationEntry{Type: c.Type(), Constraint: c.constraintValue()})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON implements json.Unmarshaler, dispatching each entry to its
// predicate variant.
func (v *Validations) UnmarshalJSON(data []byte) error {
	var entries []struct {
		Type       string          `json:"type"`
		Constraint json.RawMessage `json:"constraint"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	out := make(Validations, 0, len(entries))
	for _, entry := range entries {
		c, err := parseConstraint(ConstraintType(entry.Type), entry.Constraint)
		if err != nil {
			return err
		}
		out = append(out, c)
	}
	*v = out
	return nil
}

func parseConstraint(t ConstraintType, raw json.RawMessage) (Constraint, error) {
	switch t {
	case ConstraintGreaterThan:
		var limit float64
		if err := json.Unmarshal(raw, &limit); err != nil {
			return nil, fmt.Errorf("greater_than constraint must be numeric: %w", err)
		}
		return GreaterThan{Limit: limit}, nil
	case ConstraintLessThan:
		var limit float64
		if err := json.Unmarshal(raw, &limit); err != nil {
			return nil, fmt.Errorf("less_than constraint must be numeric: %w", err)
		}
		return LessThan{Limit: limit}, nil
	case ConstraintIncludedIn:
		var values []any
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("included_in constraint must be a list: %w", err)
		}
		return IncludedIn{Values: values}, nil
	case ConstraintListType:
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("list_type constraint must be a type name: %w", err)
		}
		return ListType{ElementType: name}, nil
	case ConstraintRegex:
		var pattern string
		if err := json.Unmarshal(raw, &pattern); err != nil {
			return nil, fmt.Errorf("regex constraint must be a pattern string: %w", err)
		}
		return Regex{Pattern: pattern}, nil
	default:
		return nil, &UnknownConstraintTypeError{Value: string(t)}
	}
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func scalarEqual(a, b any) bool {
	na, aNum := toNumber(a)
	nb, bNum := toNumber(b)
	if aNum && bNum {
		return na == nb
	}
	return a == b
}

func matchesFieldType(value any, typeName string) (bool, error) {
	switch FieldType(typeName) {
	case FieldTypeString:
		_, ok := value.(string)
		return ok, nil
	case FieldTypeInteger:
		n, ok := toNumber(value)
		return ok && math.Trunc(n) == n, nil
	case FieldTypeBoolean:
		_, ok := value.(bool)
		return ok, nil
	case FieldTypeList:
		_, ok := value.([]any)
		return ok, nil
	default:
		return false, fmt.Errorf("unknown list element type [%s]", typeName)
	}
}
