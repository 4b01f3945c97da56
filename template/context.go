package template

import (
	"context"

	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/exchange"
)

// ProfileFields is the minimal view of a profile the evaluator needs: a
// named lookup of the Template bound to each field. The concrete Profile
// type (in the collection package) implements this without template
// needing to import collection, keeping the dependency direction one-way.
type ProfileFields interface {
	Field(name string) (*Template, bool)
}

// Override describes one field override supplied by a caller of Render
// (e.g. a CLI --override flag, or a recipe-chain's own BuildOptions),
// addressed by field/identifier name.
type Override struct {
	// Omit, if true, makes the field resolve to Undefined rather than a
	// concrete value (used to suppress optional fields entirely).
	Omit bool
	// Value is the replacement value; ignored when Omit is true.
	Value Value
}

// OverrideMap holds per-render field overrides.
type OverrideMap map[string]Override

// Prompt describes an interactive text prompt triggered by the `prompt`
// builtin.
type Prompt struct {
	Message   string
	Default   *string
	Sensitive bool
}

// Select describes an interactive choice triggered by the `select`
// builtin.
type Select struct {
	Message string
	Options []string
}

// Prompter answers interactive prompts raised during rendering. A
// non-interactive embedder (e.g. a CI run) can implement this by always
// returning an error, or by returning Default/first option.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) (string, error)
	Select(ctx context.Context, s Select) (string, error)
}

// ResponseSource answers `response`/`response_header` lookups, applying
// the trigger/chain policy (C10): deciding whether to read history, or
// dispatch a fresh sub-request, for the given recipe under the render's
// selected profile.
type ResponseSource interface {
	LatestResponse(ctx context.Context, recipeID exchange.RecipeID, trigger exchange.RequestTrigger) (*exchange.Exchange, error)
}

// Arguments is the evaluated (positional, keyword) argument set passed to
// a builtin function implementation.
type Arguments struct {
	Positional []Value
	Keyword    map[string]Value
}

// Pos returns the i'th positional argument, or ok=false if absent.
func (a Arguments) Pos(i int) (Value, bool) {
	if i < 0 || i >= len(a.Positional) {
		return Value{}, false
	}
	return a.Positional[i], true
}

// Kw returns a keyword argument by name, or ok=false if absent.
func (a Arguments) Kw(name string) (Value, bool) {
	v, ok := a.Keyword[name]
	return v, ok
}

// Func is a built-in function implementation. It receives the evaluation
// context so it can call back into history/dispatch/prompting/filesystem
// capabilities, and the arguments already reduced to concrete Values.
type Func func(ctx context.Context, rc Context, args Arguments) (LazyValue, error)

// FuncSpec registers a builtin's implementation alongside the keyword
// argument names it accepts, so the evaluator can reject unknown keyword
// arguments generically before ever calling the function.
type FuncSpec struct {
	Name     string
	Fn       Func
	Keywords []string
}

// FuncMap is the set of builtins available to a render, keyed by name.
type FuncMap map[string]FuncSpec

// Context is the capability bundle a render evaluates against: the
// selected profile's fields, caller overrides, the shared profile-field
// memoization cache, the builtin function table, and the side-effecting
// capabilities (filesystem, interactive prompts, response/history lookup)
// those builtins call into.
type Context interface {
	// CanStream reports whether the consumer of this render can accept a
	// streamed result; when false, all LazyValues must be resolved to
	// concrete bytes rather than left as an io.Reader.
	CanStream() bool
	// Profile returns the selected profile's fields, or nil if none is
	// selected.
	Profile() ProfileFields
	// Overrides returns the caller-supplied field overrides for this
	// render.
	Overrides() OverrideMap
	// Cache returns the shared profile-field memoization cache for this
	// render tree.
	Cache() *FutureCache
	// Functions returns the builtin function table available to calls in
	// this render.
	Functions() FuncMap
	// FileSystem returns the filesystem the `file` builtin (and other
	// file-reading builtins) read through.
	FileSystem() afero.Fs
	// Prompter returns the interactive-prompt capability for `prompt`/
	// `select`.
	Prompter() Prompter
	// Responses returns the response/history/trigger capability for
	// `response`/`response_header`.
	Responses() ResponseSource
	// ResolveField resolves an identifier (bare `{{ name }}`, or the
	// first argument to `profile(name)`) against overrides first, falling
	// through to the selected profile, rendering and memoizing the
	// profile field's own template recursively. ok is false when neither
	// an override nor a profile field exists for name.
	ResolveField(ctx context.Context, name string) (v Value, ok bool, err error)
}
