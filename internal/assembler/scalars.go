package assembler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/graphplug/internal/schema"
)

// builtinScalars are resolved by name without a declaration.
var builtinScalars = map[string]*ScalarType{
	"String":  builtinScalar("String", serializeString),
	"Int":     builtinScalar("Int", serializeInt),
	"Float":   builtinScalar("Float", serializeFloat),
	"Boolean": builtinScalar("Boolean", serializeBoolean),
	"ID":      builtinScalar("ID", serializeID),
}

func builtinScalar(name string, serialize func(any) (any, error)) *ScalarType {
	return &ScalarType{typ: schema.BuiltinScalar(name), serialize: serialize}
}

func serializeString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value %v (%T)", v, v)
}

func serializeInt(v any) (any, error) {
	if i, ok := toInt64(v); ok {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value %d", i)
		}
		return int(i), nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent value %q", n)
		}
		return int(i), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return nil, fmt.Errorf("Int cannot represent value %v (%T)", v, v)
}

func serializeFloat(v any) (any, error) {
	if i, ok := toInt64(v); ok {
		return float64(i), nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent value %q", n)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent value %v (%T)", v, v)
}

func serializeBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if i, ok := toInt64(v); ok {
		return i != 0, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent value %v (%T)", v, v)
}

func serializeID(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	return nil, fmt.Errorf("ID cannot represent value %v (%T)", v, v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), true
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}
