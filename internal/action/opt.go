package action

import "encoding/json"

// Opt is an optional field in an update payload. Update actions merge only
// the fields present in the payload; Opt tracks presence so an absent field
// and an explicit null/zero can be told apart. Unset Opt values are omitted
// from JSON via `omitzero`.
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some wraps a value in a set Opt.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// Or returns the value when set, otherwise the fallback.
func (o Opt[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// IsZero reports whether the field is absent (for json omitzero).
func (o Opt[T]) IsZero() bool { return !o.Set }

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}
