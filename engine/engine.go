package engine

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/builder"
	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/dispatch"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/history"
	"github.com/LucasPickering/slumber/template"
)

// Engine is the façade embedders (CLI, future TUI, language bindings)
// call into: a loaded Collection, its history store, an HTTP client and
// interactive-prompt capability, bundled into one entry point.
type Engine struct {
	Collection *collection.Collection
	History    *history.CollectionDatabase
	Client     *dispatch.Client
	Prompter   template.Prompter
	FS         afero.Fs
}

// New builds an Engine. fs defaults to the real OS filesystem if nil.
func New(coll *collection.Collection, hist *history.CollectionDatabase, prompter template.Prompter, fs afero.Fs) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Engine{
		Collection: coll,
		History:    hist,
		Client:     dispatch.NewClient(),
		Prompter:   prompter,
		FS:         fs,
	}
}

// Options controls one top-level Dispatch call: recipe/profile selection,
// field overrides, persistence, dry-run, matching the CLI surface in §6.
type Options struct {
	// ProfileID selects a profile; nil uses the profile marked default,
	// else the sole profile if the collection has exactly one, else no
	// profile.
	ProfileID *exchange.ProfileID
	// Overrides supplies per-field value/omission overrides.
	Overrides template.OverrideMap
	// PersistOverride, if non-nil, overrides the recipe's own Persist
	// default for this dispatch.
	PersistOverride *bool
	// DryRun suppresses dispatch and any triggered sub-requests; any
	// render path that needs to trigger a fresh sub-request fails with
	// TriggerDisabled instead.
	DryRun bool
}

// Result is the outcome of a top-level Dispatch call: the built ticket
// (always present, even on DryRun) and the dispatch outcome (nil on
// DryRun, since no HTTP call is made).
type Result struct {
	Ticket   *builder.Ticket
	Dispatch *dispatch.Result
}

// Dispatch builds and, unless opts.DryRun, sends recipeID's request under
// the selected profile, persisting the exchange per opts and the recipe's
// own Persist flag.
func (e *Engine) Dispatch(ctx context.Context, recipeID exchange.RecipeID, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	recipe, err := e.Collection.Tree.GetRecipe(collection.RecipeID(recipeID))
	if err != nil {
		return nil, fmt.Errorf("looking up recipe %q: %w", recipeID, err)
	}

	profile, profileID, err := e.resolveProfile(opts.ProfileID)
	if err != nil {
		return nil, err
	}

	rc := e.newRenderContext(profile, profileID, opts.Overrides, false, opts.DryRun)

	ticket, err := builder.Build(ctx, rc, recipe, profileID, builderOptionsFrom(opts))
	if err != nil {
		return &Result{Ticket: ticket}, err
	}

	if opts.DryRun {
		return &Result{Ticket: ticket}, nil
	}

	sendResult, err := dispatch.Send(ctx, e.Client, ticket, e.History, &dispatch.Options{PersistOverride: opts.PersistOverride})
	return &Result{Ticket: ticket, Dispatch: sendResult}, err
}

// resolveProfile selects the named profile, or if id is nil the profile
// marked default, else the sole profile of a one-profile collection,
// returning (nil, nil, nil) if none applies (a collection with no
// profiles is valid).
func (e *Engine) resolveProfile(id *exchange.ProfileID) (*collection.Profile, *exchange.ProfileID, error) {
	if id != nil {
		p, ok := e.Collection.Profile(collection.ProfileID(*id))
		if !ok {
			return nil, nil, fmt.Errorf("profile %q not found", *id)
		}
		return p, id, nil
	}
	if p, ok := e.Collection.DefaultProfile(); ok {
		pid := exchange.ProfileID(p.ID)
		return p, &pid, nil
	}
	return nil, nil, nil
}

func builderOptionsFrom(opts *Options) *builder.Options {
	// Field overrides are addressed by position within the recipe's own
	// Query/Headers/Form slices (builder.FieldOverride), a concern
	// distinct from the profile-field overrides carried on the render
	// context; a top-level Dispatch call has no positional overrides of
	// its own, only profile overrides, so this is always the zero value.
	return builder.NewOptions()
}
