// Package patch provides the tri-state field used by partial updates and
// the builder that turns a patch struct into ordered column assignments.
//
// # Usage
//
//	type HivePatch struct {
//		Code       patch.Field[string] `patch:"code"`
//		StateLabel patch.Field[string] `patch:"state_label"`
//	}
//
//	p := HivePatch{StateLabel: patch.Null[string]()}
//	assignments := patch.Assignments(p) // [{state_label <nil>}]
package patch

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Field is a value that is either unset, explicitly null, or set to a value.
// The zero value is unset.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set returns a field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Null returns a field that clears the stored value.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// From returns Null when v is nil and Set(*v) otherwise.
func From[T any](v *T) Field[T] {
	if v == nil {
		return Null[T]()
	}
	return Set(*v)
}

// IsSet reports whether the field takes part in an update.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field was explicitly set to null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and true only when the field is set to a non-null value.
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Value returns the value to store: nil for an explicit null.
func (f Field[T]) Value() any {
	if f.null {
		return nil
	}
	return f.value
}

// Ptr returns nil for unset and null fields, otherwise a pointer to a copy of the value.
func (f Field[T]) Ptr() *T {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

// UnmarshalJSON is only called for keys present in the document, so an
// absent key stays unset while a literal null becomes Null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.value = zero
		f.null = true
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Assignment is one column write of an update statement.
type Assignment struct {
	Column string
	Value  any
}

type settable interface {
	IsSet() bool
	Value() any
}

// Assignments walks the exported fields of p (a struct or pointer to struct)
// in declaration order and returns one assignment per set field tagged with
// `patch:"column"`. Untagged fields and fields tagged "-" are skipped.
func Assignments(p any) []Assignment {
	v := reflect.ValueOf(p)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	var out []Assignment
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		column := sf.Tag.Get("patch")
		if column == "" || column == "-" || !sf.IsExported() {
			continue
		}
		field, ok := v.Field(i).Interface().(settable)
		if !ok || !field.IsSet() {
			continue
		}
		out = append(out, Assignment{Column: column, Value: field.Value()})
	}
	return out
}

// Columns returns the assignments as a column to value map, the shape
// gorm's Updates accepts. Explicit nulls map to nil.
func Columns(assignments []Assignment) map[string]any {
	m := make(map[string]any, len(assignments))
	for _, a := range assignments {
		m[a.Column] = a.Value
	}
	return m
}

// IsEmpty reports whether p would produce no assignments.
func IsEmpty(p any) bool {
	return len(Assignments(p)) == 0
}
