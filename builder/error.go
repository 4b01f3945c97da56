package builder

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/LucasPickering/slumber/template"
)

// FieldError names the recipe field a render error occurred in, alongside
// the underlying cause.
type FieldError struct {
	Field string
	Cause error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Cause)
}

func (e *FieldError) Unwrap() error { return e.Cause }

// BuildError aggregates every field-level render failure from one build
// attempt, rather than surfacing only the first. Rendering errors never
// reach dispatch: a BuildError means no HTTP call was made and no exchange
// was recorded.
type BuildError struct {
	multi *multierror.Error
}

func newBuildError() *BuildError {
	return &BuildError{multi: &multierror.Error{
		ErrorFormat: func(errs []error) string {
			return fmt.Sprintf("%d field(s) failed to render", len(errs))
		},
	}}
}

func (b *BuildError) add(field string, cause error) {
	b.multi = multierror.Append(b.multi, &FieldError{Field: field, Cause: cause})
}

// HasErrors reports whether any field failed.
func (b *BuildError) HasErrors() bool {
	return b != nil && b.multi != nil && len(b.multi.Errors) > 0
}

// Fields returns every accumulated per-field error.
func (b *BuildError) Fields() []*FieldError {
	if b == nil || b.multi == nil {
		return nil
	}
	out := make([]*FieldError, 0, len(b.multi.Errors))
	for _, e := range b.multi.Errors {
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
		}
	}
	return out
}

func (b *BuildError) Error() string { return b.multi.Error() }

// ErrOrNil returns b as an error if it has at least one field failure, or
// nil otherwise — the usual multierror finishing pattern.
func (b *BuildError) ErrOrNil() error {
	if !b.HasErrors() {
		return nil
	}
	return b
}

// wrapBuildKind tags cause with the Build error kind so callers that only
// care about the taxonomy (not individual fields) can classify it via
// errors.As against *template.Error.
func wrapBuildKind(cause error) *template.Error {
	return template.WrapError(template.KindErrBuild, cause, "building request")
}
