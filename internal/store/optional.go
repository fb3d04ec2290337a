package store

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
)

// Optional is a PATCH body field that distinguishes an absent key from an
// explicit null.
type Optional[T any] struct {
	Present bool
	Valid   bool
	V       T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Valid: true, V: v}
}

// Null returns a present Optional set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// UnmarshalJSON is only invoked when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		var zero T
		o.V = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.V); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

// Ptr returns nil for null or absent and a pointer to the value otherwise.
// It is the form handed to pgx as a query argument.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.V
	return &v
}

// Value lets validation rules see through to the wrapped value.
func (o Optional[T]) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.V, nil
}
