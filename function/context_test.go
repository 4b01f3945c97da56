package function

import (
	"context"

	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

// fakeProfile is a minimal template.ProfileFields backed by a plain map,
// used to exercise the profile()/identifier resolution path without
// needing the real collection.Profile type.
type fakeProfile map[string]*template.Template

func (p fakeProfile) Field(name string) (*template.Template, bool) {
	t, ok := p[name]
	return t, ok
}

// fakePrompter answers prompts/selects with fixed canned values, or an
// error if configured to fail.
type fakePrompter struct {
	answer string
	err    error
}

func (p fakePrompter) Prompt(context.Context, template.Prompt) (string, error) {
	return p.answer, p.err
}

func (p fakePrompter) Select(context.Context, template.Select) (string, error) {
	return p.answer, p.err
}

// fakeResponses answers response()/response_header() lookups from a fixed
// map of recipe ID to exchange, regardless of trigger policy.
type fakeResponses map[exchange.RecipeID]*exchange.Exchange

func (r fakeResponses) LatestResponse(_ context.Context, id exchange.RecipeID, _ exchange.RequestTrigger) (*exchange.Exchange, error) {
	ex, ok := r[id]
	if !ok {
		return nil, template.NewError(template.KindErrResponseMissing, "no response for recipe %q", id)
	}
	return ex, nil
}

// testContext is a minimal template.Context fake for exercising builtin
// functions directly, without the real engine package.
type testContext struct {
	profile   template.ProfileFields
	overrides template.OverrideMap
	cache     *template.FutureCache
	fs        afero.Fs
	prompter  template.Prompter
	responses template.ResponseSource
	canStream bool
}

func newTestContext() *testContext {
	return &testContext{
		cache: template.NewFutureCache(),
		fs:    afero.NewMemMapFs(),
	}
}

func (c *testContext) CanStream() bool               { return c.canStream }
func (c *testContext) Profile() template.ProfileFields { return c.profile }
func (c *testContext) Overrides() template.OverrideMap { return c.overrides }
func (c *testContext) Cache() *template.FutureCache    { return c.cache }
func (c *testContext) Functions() template.FuncMap     { return BuiltIns() }
func (c *testContext) FileSystem() afero.Fs            { return c.fs }
func (c *testContext) Prompter() template.Prompter     { return c.prompter }
func (c *testContext) Responses() template.ResponseSource {
	return c.responses
}

func (c *testContext) ResolveField(ctx context.Context, name string) (template.Value, bool, error) {
	if ov, ok := c.overrides[name]; ok {
		if ov.Omit {
			return template.Value{}, false, nil
		}
		return ov.Value, true, nil
	}
	if c.profile == nil {
		return template.Value{}, false, nil
	}
	tpl, ok := c.profile.Field(name)
	if !ok {
		return template.Value{}, false, nil
	}
	v, err := c.cache.GetOrCompute(ctx, name, func() (template.Value, error) {
		return template.Render(ctx, c, tpl)
	})
	if err != nil {
		return template.Value{}, false, err
	}
	return v, true, nil
}

func args(positional ...template.Value) template.Arguments {
	return template.Arguments{Positional: positional}
}

func kwArgs(positional []template.Value, kw map[string]template.Value) template.Arguments {
	return template.Arguments{Positional: positional, Keyword: kw}
}
