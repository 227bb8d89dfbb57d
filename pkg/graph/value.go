package graph

import (
	"fmt"
	"strconv"
	"time"
)

// ValueType represents the type of a property value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTimestamp
)

// String returns the name of the value type
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value is a typed scalar property value. Only the field matching Type is set.
type Value struct {
	Type ValueType
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, s: s}
}

func IntValue(i int64) Value {
	return Value{Type: TypeInt, i: i}
}

func FloatValue(f float64) Value {
	return Value{Type: TypeFloat, f: f}
}

func BoolValue(b bool) Value {
	return Value{Type: TypeBool, b: b}
}

func TimestampValue(t time.Time) Value {
	return Value{Type: TypeTimestamp, t: t.UTC()}
}

// ValueOf converts a decoded JSON/YAML scalar into a Value. Nested maps and
// lists are rejected.
func ValueOf(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case int32:
		return IntValue(int64(v)), nil
	case uint64:
		return IntValue(int64(v)), nil
	case float64:
		return FloatValue(v), nil
	case float32:
		return FloatValue(float64(v)), nil
	case time.Time:
		return TimestampValue(v), nil
	case nil:
		return Value{}, fmt.Errorf("property value is null")
	default:
		return Value{}, fmt.Errorf("unsupported property value of type %T", raw)
	}
}

// PropertiesOf converts a decoded map into Properties
func PropertiesOf(raw map[string]any) (Properties, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	props := make(Properties, len(raw))
	for k, v := range raw {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		props[k] = val
	}
	return props, nil
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return v.s, nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return v.f, nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.b, nil
}

func (v Value) AsTimestamp() (time.Time, error) {
	if v.Type != TypeTimestamp {
		return time.Time{}, fmt.Errorf("value is not a timestamp")
	}
	return v.t, nil
}

// Interface returns the value as a plain Go scalar, for JSON output
func (v Value) Interface() any {
	switch v.Type {
	case TypeString:
		return v.s
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeBool:
		return v.b
	case TypeTimestamp:
		return v.t
	default:
		return nil
	}
}

// String formats the value for display
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return v.s
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeTimestamp:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}
