package internal

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/copystructure"
)

var (
	ErrCopyFailed      = errors.New("internal: copy failed at type assertion")
	ErrUnexportedField = errors.New("internal: cannot copy unexported field")
)

// Copy returns a deep copy of t. copystructure silently zeroes unexported
// struct fields, so values that contain one are rejected with
// ErrUnexportedField. Types with a registered copystructure.Copiers entry,
// such as time.Time, are copied as a whole.
func Copy[T any](t T) (T, error) {
	if err := checkExported(reflect.ValueOf(t), make(map[uintptr]bool)); err != nil {
		return t, err
	}

	v, err := copystructure.Copy(t)
	if err != nil {
		return t, err
	}

	// A nil interface copies to nil.
	if v == nil {
		var zero T
		return zero, nil
	}

	c, ok := v.(T)
	if !ok {
		return t, ErrCopyFailed
	}

	return c, nil
}

func checkExported(v reflect.Value, seen map[uintptr]bool) error {
	if !v.IsValid() {
		return nil
	}
	if _, ok := copystructure.Copiers[v.Type()]; ok {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || seen[v.Pointer()] {
			return nil
		}
		seen[v.Pointer()] = true

		return checkExported(v.Elem(), seen)
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}

		return checkExported(v.Elem(), seen)
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				return fmt.Errorf("%w: %s.%s", ErrUnexportedField, t, f.Name)
			}
			if err := checkExported(v.Field(i), seen); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if scalar(v.Type().Elem()) {
			return nil
		}
		for i := range v.Len() {
			if err := checkExported(v.Index(i), seen); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkExported(iter.Key(), seen); err != nil {
				return err
			}
			if err := checkExported(iter.Value(), seen); err != nil {
				return err
			}
		}
	}

	return nil
}

// scalar reports whether values of t can never contain a struct.
func scalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
		return false
	default:
		return true
	}
}
