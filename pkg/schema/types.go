package schema

import (
	"fmt"
	"strings"
)

// Type checks a single configuration value.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type mapType struct{}

func (mapType) Name() string { return "map" }

func (mapType) Validate(value any) error {
	switch value.(type) {
	case map[string]any, map[string]string:
		return nil
	default:
		return fmt.Errorf("expected map, got %T", value)
	}
}

type enumType struct {
	values []string
}

func (t enumType) Name() string {
	return "enum(" + strings.Join(t.values, "|") + ")"
}

func (t enumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if strings.EqualFold(s, v) {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(t.values, ", "))
}

// OptionalType marks a field that may be absent.
type OptionalType struct {
	Inner Type
}

func (t OptionalType) Name() string { return t.Inner.Name() + "?" }

func (t OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.Inner.Validate(value)
}

// String accepts non-blank strings.
func String() Type { return stringType{} }

// Int accepts integers, including whole float64 values.
func Int() Type { return intType{} }

// Float accepts any number.
func Float() Type { return floatType{} }

// Bool accepts booleans.
func Bool() Type { return boolType{} }

// Map accepts JSON objects.
func Map() Type { return mapType{} }

// Enum accepts one of the given strings (case-insensitive).
func Enum(values ...string) Type { return enumType{values: values} }

// Optional allows the field to be absent or null.
func Optional(t Type) Type { return OptionalType{Inner: t} }

// IsOptional reports whether t was wrapped with Optional.
func IsOptional(t Type) bool {
	_, ok := t.(OptionalType)
	return ok
}
