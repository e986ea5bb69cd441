package strategy

import "reflect"

// Strategy selects how a value is persisted.
type Strategy int

const (
	// Native values are handed to the engine's own binary codec unchanged.
	Native Strategy = iota

	// JSON values are serialized to a marker-tagged JSON string first.
	JSON
)

// String returns the strategy name.
func (s Strategy) String() string {
	if s == JSON {
		return "json"
	}
	return "native"
}

// Classify reports the storage strategy for v.
//
// Nil, primitive scalars, byte slices, and sequences or string-keyed
// mappings whose every element is itself Native classify as Native.
// Everything else, including structs, pointers, mappings with non-string
// keys, and self-referential containers, classifies as JSON. The walk is
// iterative so deeply nested values cannot overflow the goroutine stack.
func Classify(v any) Strategy {
	s, _ := classify(v)
	return s
}

// classify returns the strategy for v together with a rough byte estimate
// used to price offloading. The walk stops at the first JSON-forcing
// element, so JSON estimates cover only the portion inspected.
func classify(v any) (Strategy, int) {
	var (
		est     int
		stack   = []any{v}
		visited map[uintptr]struct{}
	)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch cv := cur.(type) {
		case nil:
			est += 4
			continue
		case bool:
			est += 5
			continue
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			est += 8
			continue
		case float32, float64:
			est += 12
			continue
		case string:
			est += len(cv) + 2
			continue
		case []byte:
			est += len(cv) + 2
			continue
		}

		rv := reflect.ValueOf(cur)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				est += rv.Len() + 2
				continue
			}
			// Only slices can close a reference cycle; arrays are values.
			if rv.Kind() == reflect.Slice && rv.Len() > 0 && revisit(&visited, rv.Pointer()) {
				return JSON, est
			}
			est += 2
			for i := rv.Len() - 1; i >= 0; i-- {
				est += 2
				stack = append(stack, rv.Index(i).Interface())
			}
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return JSON, est
			}
			if !rv.IsNil() && revisit(&visited, rv.Pointer()) {
				return JSON, est
			}
			est += 2
			iter := rv.MapRange()
			for iter.Next() {
				est += len(iter.Key().String()) + 2
				stack = append(stack, iter.Value().Interface())
			}
		default:
			return JSON, est + 16
		}
	}

	return Native, est
}

// revisit records p and reports whether it was seen before. Containers
// reached twice are routed to JSON, whose encoder rejects true cycles.
func revisit(visited *map[uintptr]struct{}, p uintptr) bool {
	if *visited == nil {
		*visited = make(map[uintptr]struct{})
	}
	if _, ok := (*visited)[p]; ok {
		return true
	}
	(*visited)[p] = struct{}{}
	return false
}
