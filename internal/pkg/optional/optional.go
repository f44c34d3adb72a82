// Package optional distinguishes an absent JSON field from an explicit null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is Set when the field appeared in the payload. V is nil for an explicit null.
type Value[T any] struct {
	Set bool
	V   *T
}

func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, V: &v}
}

func Null[T any]() Value[T] {
	return Value[T]{Set: true}
}

func (o *Value[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.V = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.V = &v
	return nil
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if o.V == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.V)
}
