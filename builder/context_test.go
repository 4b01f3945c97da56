package builder

import (
	"context"

	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/template"
)

type fakeProfile map[string]*template.Template

func (p fakeProfile) Field(name string) (*template.Template, bool) {
	t, ok := p[name]
	return t, ok
}

// fakeContext is a minimal template.Context for exercising the builder
// without the real engine package: no functions, no prompter, no
// response source, since build-time field templates in these tests never
// call builtins.
type fakeContext struct {
	profile   template.ProfileFields
	overrides template.OverrideMap
	cache     *template.FutureCache
}

func newFakeContext(profile fakeProfile, overrides template.OverrideMap) *fakeContext {
	return &fakeContext{profile: profile, overrides: overrides, cache: template.NewFutureCache()}
}

func (c *fakeContext) CanStream() bool                      { return false }
func (c *fakeContext) Profile() template.ProfileFields       { return c.profile }
func (c *fakeContext) Overrides() template.OverrideMap        { return c.overrides }
func (c *fakeContext) Cache() *template.FutureCache           { return c.cache }
func (c *fakeContext) Functions() template.FuncMap            { return template.FuncMap{} }
func (c *fakeContext) FileSystem() afero.Fs                   { return afero.NewMemMapFs() }
func (c *fakeContext) Prompter() template.Prompter             { return nil }
func (c *fakeContext) Responses() template.ResponseSource      { return nil }

func (c *fakeContext) ResolveField(ctx context.Context, name string) (template.Value, bool, error) {
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

func mustParse(src string) *template.Template {
	tpl, err := template.Parse(src)
	if err != nil {
		panic(err)
	}
	return tpl
}
