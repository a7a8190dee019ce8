// Package buildinfo holds the record one build task produces. Each field can
// be filled exactly once, so later steps cannot silently overwrite what an
// earlier step recorded.
package buildinfo

import (
	stderrors "errors"

	"git.home.luguber.info/inful/docversions/internal/foundation"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

var (
	// ErrAlreadySet is returned when a field is filled a second time.
	ErrAlreadySet = stderrors.New("field already set")
	// ErrNotPresent is returned when an unset field is read.
	ErrNotPresent = stderrors.New("field not set")
	// ErrUnknownField is returned for names outside the fixed field set.
	ErrUnknownField = stderrors.New("unknown field")
)

// Field names accepted by Lookup.
const (
	FieldType       = "type"
	FieldSlug       = "slug"
	FieldOutputPath = "output_path"
	FieldConfigPath = "config_path"
	FieldSourcePath = "source_path"
	FieldCommit     = "commit"
	FieldReused     = "reused"
)

// Field is a write-once value.
type Field[T any] struct {
	name  string
	value foundation.Option[T]
}

// Set fills the field. A second call fails with ErrAlreadySet and leaves the first value.
func (f *Field[T]) Set(v T) error {
	if f.value.IsSome() {
		return violation(ErrAlreadySet, f.name)
	}
	f.value = foundation.Some(v)
	return nil
}

// Get returns the value or ErrNotPresent.
func (f *Field[T]) Get() (T, error) {
	v, ok := f.value.Get()
	if !ok {
		return v, violation(ErrNotPresent, f.name)
	}
	return v, nil
}

// GetOr returns the value, or fallback when unset.
func (f *Field[T]) GetOr(fallback T) T { return f.value.UnwrapOr(fallback) }

// IsSet reports whether the field has been filled.
func (f *Field[T]) IsSet() bool { return f.value.IsSome() }

// Info is the result of one task.
type Info struct {
	Type       Field[versioning.Type]
	Slug       Field[string]
	OutputPath Field[string]
	ConfigPath Field[string] // generator configuration file used for the build
	SourcePath Field[string] // directory the generator read from
	Commit     Field[string] // empty for the working tree
	Reused     Field[bool]   // output was copied from the cache
}

// New returns an Info with every field unset.
func New() *Info {
	return &Info{
		Type:       Field[versioning.Type]{name: FieldType},
		Slug:       Field[string]{name: FieldSlug},
		OutputPath: Field[string]{name: FieldOutputPath},
		ConfigPath: Field[string]{name: FieldConfigPath},
		SourcePath: Field[string]{name: FieldSourcePath},
		Commit:     Field[string]{name: FieldCommit},
		Reused:     Field[bool]{name: FieldReused},
	}
}

// Lookup returns a field value by name. Unknown names fail with
// ErrUnknownField whether or not anything has been set.
func (i *Info) Lookup(name string) (any, error) {
	switch name {
	case FieldType:
		return i.Type.Get()
	case FieldSlug:
		return i.Slug.Get()
	case FieldOutputPath:
		return i.OutputPath.Get()
	case FieldConfigPath:
		return i.ConfigPath.Get()
	case FieldSourcePath:
		return i.SourcePath.Get()
	case FieldCommit:
		return i.Commit.Get()
	case FieldReused:
		return i.Reused.Get()
	default:
		return nil, violation(ErrUnknownField, name)
	}
}

// Has reports whether the named field is set.
func (i *Info) Has(name string) (bool, error) {
	_, err := i.Lookup(name)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, ErrNotPresent):
		return false, nil
	default:
		return false, err
	}
}

// violation wraps a sentinel as a fatal internal error; misuse of Info is a
// programming error and aborts the run.
func violation(sentinel error, field string) error {
	return errors.InternalError("build info contract violation").
		WithCause(sentinel).
		WithContext("field", field).
		Build()
}
