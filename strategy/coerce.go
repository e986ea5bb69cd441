package strategy

import (
	"math"
	"strconv"
)

// maxExactInt is the largest integer a float64 represents exactly.
const maxExactInt = 1 << 53

// CoerceInt64 converts v to int64. Integers of any width convert when
// they fit, floats convert when integral and exactly representable, and
// strings parse as decimal, covering numbers written as text by older
// format revisions. Anything else fails with a TypeMismatchError.
func CoerceInt64(v any) (int64, error) {
	if n, ok := asInt64(v); ok {
		return n, nil
	}
	switch cv := v.(type) {
	case uint64:
		if cv <= math.MaxInt64 {
			return int64(cv), nil
		}
	case float64:
		if cv == math.Trunc(cv) && cv >= -maxExactInt && cv <= maxExactInt {
			return int64(cv), nil
		}
	case float32:
		f := float64(cv)
		if f == math.Trunc(f) && f >= -maxExactInt && f <= maxExactInt {
			return int64(f), nil
		}
	case string:
		if n, err := strconv.ParseInt(cv, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, &TypeMismatchError{Want: KindInt, Value: v}
}

// CoerceFloat64 converts v to float64 from floats, integers, or decimal
// text.
func CoerceFloat64(v any) (float64, error) {
	switch cv := v.(type) {
	case float64:
		return cv, nil
	case float32:
		return float64(cv), nil
	case uint:
		return float64(cv), nil
	case uint64:
		return float64(cv), nil
	case string:
		if f, err := strconv.ParseFloat(cv, 64); err == nil {
			return f, nil
		}
	default:
		if n, ok := asInt64(v); ok {
			return float64(n), nil
		}
	}
	return 0, &TypeMismatchError{Want: KindFloat, Value: v}
}

// CoerceBool converts v to bool from a bool or boolean text.
func CoerceBool(v any) (bool, error) {
	switch cv := v.(type) {
	case bool:
		return cv, nil
	case string:
		if b, err := strconv.ParseBool(cv); err == nil {
			return b, nil
		}
	}
	return false, &TypeMismatchError{Want: KindBool, Value: v}
}

// CoerceString requires v to already be a string. Numeric values are not
// rendered to text; that would hide type errors the caller should see.
func CoerceString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", &TypeMismatchError{Want: KindString, Value: v}
}

// CoerceBytes requires v to already be a byte slice.
func CoerceBytes(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, &TypeMismatchError{Want: KindBytes, Value: v}
}

// asInt64 converts any signed integer and the unsigned widths that always
// fit. uint64 is handled by callers since it can overflow.
func asInt64(v any) (int64, bool) {
	switch cv := v.(type) {
	case int:
		return int64(cv), true
	case int8:
		return int64(cv), true
	case int16:
		return int64(cv), true
	case int32:
		return int64(cv), true
	case int64:
		return cv, true
	case uint:
		if uint64(cv) <= math.MaxInt64 {
			return int64(cv), true
		}
	case uint8:
		return int64(cv), true
	case uint16:
		return int64(cv), true
	case uint32:
		return int64(cv), true
	}
	return 0, false
}
