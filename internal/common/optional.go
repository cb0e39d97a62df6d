package common

import (
	"bytes"
	"encoding/json"
)

// Optional is a PATCH field that distinguishes an absent key, an explicit
// null and a value. Absent keys never reach UnmarshalJSON, so Set stays false.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Apply resolves the patch against the current value: absent keeps current,
// null returns nil and a value returns a pointer to it.
func (o Optional[T]) Apply(current *T) *T {
	if !o.Set {
		return current
	}
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
