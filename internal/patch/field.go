// Package patch builds partial UPDATE statements from sparse request fields.
//
// A Field distinguishes a value the client never sent (Nop) from one it sent,
// including an explicit JSON null for nullable columns (Set of a nil pointer).
package patch

import "encoding/json"

// Field is either Nop (the zero value) or Set(value).
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Nop returns an untouched field.
func Nop[T any]() Field[T] {
	return Field[T]{}
}

func (f Field[T]) IsSet() bool { return f.set }

func (f Field[T]) IsNop() bool { return !f.set }

// Get returns the value and whether the field is Set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// Assignment renders "column = ?" for a Set field.
func (f Field[T]) Assignment(column string) (string, bool) {
	if !f.set {
		return "", false
	}
	return column + " = ?", true
}

// BindInto appends the value to args when Set.
func (f Field[T]) BindInto(args []any) []any {
	if !f.set {
		return args
	}
	return append(args, f.value)
}

// UnmarshalJSON is only reached when the key is present in the payload, so
// every decoded field is Set. A JSON null decodes into the zero value of T,
// which is a nil pointer for nullable fields.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = v
	f.set = true
	return nil
}

// Map transforms the value of a Set field and keeps Nop as Nop.
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	if !f.set {
		return Nop[U]()
	}
	return Set(fn(f.value))
}

// TryMap is Map for fallible transforms; the first error is returned as is.
func TryMap[T, U any](f Field[T], fn func(T) (U, error)) (Field[U], error) {
	if !f.set {
		return Nop[U](), nil
	}
	v, err := fn(f.value)
	if err != nil {
		return Nop[U](), err
	}
	return Set(v), nil
}

// Flatten collapses a nullable field onto a non-nullable column:
// Set(&t) becomes Set(t), Nop stays Nop, and Set(nil) reports ok=false so the
// caller drops the field from the update.
func Flatten[T any](f Field[*T]) (Field[T], bool) {
	if !f.set {
		return Nop[T](), true
	}
	if f.value == nil {
		return Nop[T](), false
	}
	return Set(*f.value), true
}
