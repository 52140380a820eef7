package logging

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

const (
	// maxNormalizeDepth bounds recursion into nested metadata values.
	maxNormalizeDepth    = 10
	// maxNormalizeElements bounds how many slice elements are kept.
	maxNormalizeElements = 100
)

// normalizeValue turns an arbitrary metadata value into something
// encoding/json can always serialize: maps with string keys, slices and
// leaves. Cycles and excessive depth are replaced by markers.
func normalizeValue(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = unserializable(v, fmt.Errorf("%v", r))
		}
	}()
	return normalize(reflect.ValueOf(v), map[uintptr]bool{}, 0)
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
)

func normalize(val reflect.Value, visited map[uintptr]bool, depth int) any {
	if !val.IsValid() {
		return nil
	}
	if depth > maxNormalizeDepth {
		return "<max depth reached>"
	}

	// Unwrap interfaces and pointers, with cycle detection.
	for val.Kind() == reflect.Interface || val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		if val.Kind() == reflect.Ptr {
			if leaf, ok := leafValue(val); ok {
				return leaf
			}
			ptr := val.Pointer()
			if visited[ptr] {
				return "<circular reference>"
			}
			visited[ptr] = true
			defer delete(visited, ptr)
		}
		val = val.Elem()
	}

	if leaf, ok := leafValue(val); ok {
		return leaf
	}

	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		out := make(map[string]any, val.NumField())
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name, skip := jsonName(field)
			if skip {
				continue
			}
			out[name] = normalize(val.Field(i), visited, depth+1)
		}
		return out

	case reflect.Map:
		if val.IsNil() {
			return nil
		}
		out := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value(), visited, depth+1)
		}
		return out

	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("%x", val.Bytes())
		}
		n := val.Len()
		out := make([]any, 0, min(n, maxNormalizeElements+1))
		for i := 0; i < n && i < maxNormalizeElements; i++ {
			out = append(out, normalize(val.Index(i), visited, depth+1))
		}
		if n > maxNormalizeElements {
			out = append(out, fmt.Sprintf("... (%d more elements)", n-maxNormalizeElements))
		}
		return out

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Sprintf("<%s>", val.Type())

	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(val.Complex())

	default:
		if val.CanInterface() {
			return val.Interface()
		}
		return fmt.Sprint(val)
	}
}

// leafValue reports values that serialize themselves and must not be walked.
func leafValue(val reflect.Value) (any, bool) {
	if !val.CanInterface() {
		return nil, false
	}
	typ := val.Type()
	switch {
	case typ == reflect.TypeOf(time.Time{}):
		return val.Interface(), true
	case typ.Implements(errorType):
		return val.Interface().(error).Error(), true
	case typ.Implements(jsonMarshalerType), typ.Implements(textMarshalerType):
		return val.Interface(), true
	}
	return nil, false
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return emptyString, true
	}
	if name, _, _ := strings.Cut(tag, ","); name != emptyString {
		return name, false
	}
	return f.Name, false
}

// safeJSON marshals v, converting marshal errors and panics into an error.
func safeJSON(v any) (raw []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during marshal: %v", r)
		}
	}()
	return json.Marshal(v)
}

func unserializable(v any, err error) string {
	return fmt.Sprintf("[unserializable %T: %v]", v, err)
}
