package validator

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Nullable tells an absent JSON field apart from an explicit null. Set is true
// whenever the key was present; Value is nil when it was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// IsNull reports a present key with no value.
func (n Nullable[T]) IsNull() bool {
	return n.Set && n.Value == nil
}

// nullableValue exposes the wrapped value to the validation rules; an absent
// or null field validates like a nil pointer.
func nullableValue[T any](field reflect.Value) any {
	n, ok := field.Interface().(Nullable[T])
	if !ok || n.Value == nil {
		return nil
	}
	return *n.Value
}
