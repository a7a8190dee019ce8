// Package foundation provides small generic building blocks shared across docversions.
package foundation

// Option represents a value that may or may not be present. The zero
// value is empty.
type Option[T any] struct {
	value   T
	present bool
}

// Some creates an Option holding value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// IsSome reports whether the Option holds a value.
func (o Option[T]) IsSome() bool { return o.present }

// Get returns the value and whether it was present.
func (o Option[T]) Get() (T, bool) { return o.value, o.present }

// UnwrapOr returns the value if present, otherwise fallback.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}
