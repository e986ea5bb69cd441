package strategy

import "reflect"

// Kind names the value kinds the strategy layer distinguishes.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindSequence
	KindMapping
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "other"
	}
}

// KindOf returns the Kind of v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case []byte:
		return KindBytes
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindBytes
		}
		return KindSequence
	case reflect.Map:
		return KindMapping
	default:
		return KindOther
	}
}
