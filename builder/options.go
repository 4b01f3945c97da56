// Package builder implements the request builder (spec C7): rendering a
// recipe's fields concurrently against a render context and assembling
// the result into a wire-ready exchange.Request.
package builder

import "github.com/LucasPickering/slumber/template"

// FieldOverride replaces or disables one recipe field, addressed by its
// stable position within the recipe (duplicates of the same name are
// legal, so overrides can't be addressed by name alone).
type FieldOverride struct {
	Value   template.Value
	Disable bool
}

// Options carries per-field overrides and disables for one build, keyed by
// position within the recipe's own field lists.
type Options struct {
	// QueryOverrides/HeaderOverrides/FormOverrides are keyed by index into
	// the recipe's Query/Headers/Body.Form slices respectively.
	QueryOverrides  map[int]FieldOverride
	HeaderOverrides map[int]FieldOverride
	FormOverrides   map[int]FieldOverride

	// URLOverride, when non-nil, replaces the rendered URL outright.
	URLOverride *template.Value
	// BodyOverride, when non-nil, replaces the rendered raw/JSON body
	// outright. Not meaningful for form bodies.
	BodyOverride *template.Value
}

// NewOptions returns an empty Options with initialized maps, ready for
// incremental population. Profile-field overrides (as opposed to the
// per-field overrides here) are the render context's concern, not the
// builder's: the caller assembles rc with those already wired (see the
// engine package) before calling Build.
func NewOptions() *Options {
	return &Options{
		QueryOverrides:  make(map[int]FieldOverride),
		HeaderOverrides: make(map[int]FieldOverride),
		FormOverrides:   make(map[int]FieldOverride),
	}
}
