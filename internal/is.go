package internal

import "reflect"

// Nilable reports whether values of type t can be nil.
func Nilable(t reflect.Type) bool {
	if t == nil {
		return true
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// IsNil reports whether v is nil or a nil value of a nilable kind.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	if !Nilable(rv.Type()) {
		return false
	}

	return rv.IsNil()
}
