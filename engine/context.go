// Package engine is the top-level orchestrator (C9 render context and
// caching, C10 trigger/chain policy): it wires the collection tree, the
// request builder, the HTTP dispatcher and the history store into one
// façade.
package engine

import (
	"context"

	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/function"
	"github.com/LucasPickering/slumber/template"
)

// renderContext is the engine's template.Context implementation. One is
// built per top-level render and per triggered sub-request, each getting
// its own FutureCache since the memoization map is "exclusive to one
// render context" (§5).
type renderContext struct {
	engine    *Engine
	profile   template.ProfileFields
	profileID *exchange.ProfileID
	overrides template.OverrideMap
	cache     *template.FutureCache
	canStream bool
	dryRun    bool
}

func (e *Engine) newRenderContext(profile *collection.Profile, profileID *exchange.ProfileID, overrides template.OverrideMap, canStream, dryRun bool) *renderContext {
	var fields template.ProfileFields
	if profile != nil {
		fields = profile
	}
	return &renderContext{
		engine:    e,
		profile:   fields,
		profileID: profileID,
		overrides: overrides,
		cache:     template.NewFutureCache(),
		canStream: canStream,
		dryRun:    dryRun,
	}
}

func (rc *renderContext) CanStream() bool                 { return rc.canStream }
func (rc *renderContext) Profile() template.ProfileFields { return rc.profile }
func (rc *renderContext) Overrides() template.OverrideMap { return rc.overrides }
func (rc *renderContext) Cache() *template.FutureCache    { return rc.cache }
func (rc *renderContext) Functions() template.FuncMap     { return function.BuiltIns() }
func (rc *renderContext) FileSystem() afero.Fs            { return rc.engine.FS }
func (rc *renderContext) Prompter() template.Prompter     { return rc.engine.Prompter }

func (rc *renderContext) Responses() template.ResponseSource {
	return &responseSource{engine: rc.engine, profileID: rc.profileID, dryRun: rc.dryRun}
}

// ResolveField resolves name against overrides first, then the selected
// profile, memoizing a profile field's own recursive render so each field
// is evaluated at most once per render tree.
func (rc *renderContext) ResolveField(ctx context.Context, name string) (template.Value, bool, error) {
	if ov, ok := rc.overrides[name]; ok {
		if ov.Omit {
			return template.Value{}, false, nil
		}
		return ov.Value, true, nil
	}
	if rc.profile == nil {
		return template.Value{}, false, nil
	}
	tpl, ok := rc.profile.Field(name)
	if !ok {
		return template.Value{}, false, nil
	}
	v, err := rc.cache.GetOrCompute(ctx, name, func() (template.Value, error) {
		return template.Render(ctx, rc, tpl)
	})
	if err != nil {
		return template.Value{}, false, err
	}
	return v, true, nil
}
