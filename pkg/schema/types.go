package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type identifies how values written to a persisted path are cast.
type Type string

const (
	// Mixed stores values as given.
	Mixed Type = "mixed"
	// String casts scalars to their string form.
	String Type = "string"
	// Number casts numeric values and numeric strings to float64.
	Number Type = "number"
	// Boolean casts bools, "true"/"false" style strings and 0/1.
	Boolean Type = "boolean"
	// Date casts time.Time values and RFC 3339 strings.
	Date Type = "date"
)

// ParseType resolves a type name as used in declarative definitions. An empty
// name resolves to Mixed.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mixed", "any":
		return Mixed, nil
	case "string":
		return String, nil
	case "number", "float", "int":
		return Number, nil
	case "boolean", "bool":
		return Boolean, nil
	case "date", "time":
		return Date, nil
	default:
		return "", fmt.Errorf("schema: unknown type %q", name)
	}
}

// Cast converts value into the representation stored for t. Nil always casts
// to nil.
func (t Type) Cast(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch t {
	case String:
		return castString(value)
	case Number:
		return castNumber(value)
	case Boolean:
		return castBoolean(value)
	case Date:
		return castDate(value)
	default:
		return value, nil
	}
}

func castString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if n, ok := toFloat(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	}
	return nil, fmt.Errorf("cannot cast %T to string", value)
}

func castNumber(value any) (any, error) {
	if n, ok := toFloat(value); ok {
		return n, nil
	}
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	}
	return nil, fmt.Errorf("cannot cast %T to number", value)
}

func castBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("cannot cast %q to boolean", v)
	}
	if n, ok := toFloat(value); ok {
		switch n {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return nil, fmt.Errorf("cannot cast %T to boolean", value)
}

func castDate(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	}
	if n, ok := toFloat(value); ok && !math.IsNaN(n) {
		return time.UnixMilli(int64(n)).UTC(), nil
	}
	return nil, fmt.Errorf("cannot cast %T to date", value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
