package template

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/slumber/exchange"
)

// fakeProfile is a minimal ProfileFields backed by a plain map, for tests.
type fakeProfile map[string]*Template

func (p fakeProfile) Field(name string) (*Template, bool) {
	t, ok := p[name]
	return t, ok
}

type fakeResponses struct{}

func (fakeResponses) LatestResponse(context.Context, exchange.RecipeID, exchange.RequestTrigger) (*exchange.Exchange, error) {
	return nil, NewError(KindErrResponseMissing, "no response in test context")
}

type fakePrompter struct{}

func (fakePrompter) Prompt(context.Context, Prompt) (string, error) { return "", nil }
func (fakePrompter) Select(context.Context, Select) (string, error) { return "", nil }

// testContext is a self-contained Context implementation for template
// package tests that don't need the full engine wiring.
type testContext struct {
	profile   ProfileFields
	overrides OverrideMap
	cache     *FutureCache
	funcs     FuncMap
	fs        afero.Fs
	canStream bool
}

func newTestContext(profile ProfileFields) *testContext {
	return &testContext{
		profile: profile,
		cache:   NewFutureCache(),
		funcs:   FuncMap{},
		fs:      afero.NewMemMapFs(),
	}
}

func (c *testContext) CanStream() bool        { return c.canStream }
func (c *testContext) Profile() ProfileFields { return c.profile }
func (c *testContext) Overrides() OverrideMap { return c.overrides }
func (c *testContext) Cache() *FutureCache    { return c.cache }
func (c *testContext) Functions() FuncMap     { return c.funcs }
func (c *testContext) FileSystem() afero.Fs   { return c.fs }
func (c *testContext) Prompter() Prompter     { return fakePrompter{} }
func (c *testContext) Responses() ResponseSource {
	return fakeResponses{}
}

func (c *testContext) ResolveField(ctx context.Context, name string) (Value, bool, error) {
	if ov, ok := c.overrides[name]; ok {
		if ov.Omit {
			return Value{}, false, nil
		}
		return ov.Value, true, nil
	}
	if c.profile == nil {
		return Value{}, false, nil
	}
	tpl, ok := c.profile.Field(name)
	if !ok {
		return Value{}, false, nil
	}
	v, err := c.cache.GetOrCompute(ctx, name, func() (Value, error) {
		return Render(ctx, c, tpl)
	})
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tpl, err := Parse(src)
	require.NoError(t, err)
	return tpl
}

func TestRenderSingleChunkPreservesType(t *testing.T) {
	rc := newTestContext(nil)
	tpl := mustParse(t, "{{ 42 }}")
	v, err := Render(context.Background(), rc, tpl)
	require.NoError(t, err)
	assert.Equal(t, KindInteger, v.Kind())
	assert.Equal(t, int64(42), v.Int())
}

func TestRenderMultiChunkProducesString(t *testing.T) {
	rc := newTestContext(nil)
	tpl := mustParse(t, "count={{ 42 }}")
	v, err := Render(context.Background(), rc, tpl)
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "count=42", v.Str())
}

func TestRenderIdentifierFromProfile(t *testing.T) {
	hostTpl := mustParse(t, "example.com")
	profile := fakeProfile{"host": hostTpl}
	rc := newTestContext(profile)
	tpl := mustParse(t, "https://{{ host }}/users")
	v, err := Render(context.Background(), rc, tpl)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/users", v.Str())
}

func TestRenderOverrideTakesPrecedenceOverProfile(t *testing.T) {
	hostTpl := mustParse(t, "from-profile.example")
	profile := fakeProfile{"host": hostTpl}
	rc := newTestContext(profile)
	rc.overrides = OverrideMap{"host": {Value: NewString("overridden.example")}}
	tpl := mustParse(t, "{{ host }}")
	v, err := Render(context.Background(), rc, tpl)
	require.NoError(t, err)
	assert.Equal(t, "overridden.example", v.Str())
}

func TestRenderOmitOverrideYieldsUndefinedError(t *testing.T) {
	profile := fakeProfile{"host": mustParse(t, "example.com")}
	rc := newTestContext(profile)
	rc.overrides = OverrideMap{"host": {Omit: true}}
	tpl := mustParse(t, "{{ host }}")
	_, err := Render(context.Background(), rc, tpl)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrFieldUnknown, terr.Kind)
}

func TestRenderUnknownIdentifierIsFieldUnknown(t *testing.T) {
	rc := newTestContext(nil)
	tpl := mustParse(t, "{{ nope }}")
	_, err := Render(context.Background(), rc, tpl)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrFieldUnknown, terr.Kind)
}

func TestRenderProfileFieldMemoizedOnce(t *testing.T) {
	var calls int
	rc := newTestContext(nil)
	rc.funcs = FuncMap{
		"count": {
			Name: "count",
			Fn: func(ctx context.Context, rc Context, args Arguments) (LazyValue, error) {
				calls++
				return concreteLazy(NewInt(int64(calls))), nil
			},
		},
	}
	profile := fakeProfile{"token": mustParse(t, "{{ count() }}")}
	rc.profile = profile
	tpl := mustParse(t, "{{ token }}-{{ token }}")
	v, err := Render(context.Background(), rc, tpl)
	require.NoError(t, err)
	assert.Equal(t, "1-1", v.Str())
	assert.Equal(t, 1, calls)
}

func TestRenderUnknownFunctionIsArgumentError(t *testing.T) {
	rc := newTestContext(nil)
	tpl := mustParse(t, `{{ nope() }}`)
	_, err := Render(context.Background(), rc, tpl)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrArgument, terr.Kind)
}

func TestRenderUnknownKeywordArgumentIsArgumentError(t *testing.T) {
	rc := newTestContext(nil)
	rc.funcs = FuncMap{
		"f": {Name: "f", Keywords: []string{"allowed"}, Fn: func(context.Context, Context, Arguments) (LazyValue, error) {
			return concreteLazy(NewNull()), nil
		}},
	}
	tpl := mustParse(t, `{{ f(bogus="x") }}`)
	_, err := Render(context.Background(), rc, tpl)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrArgument, terr.Kind)
}

func TestRenderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := newTestContext(nil)
	rc.funcs = FuncMap{
		"f": {Name: "f", Fn: func(context.Context, Context, Arguments) (LazyValue, error) {
			return concreteLazy(NewNull()), nil
		}},
	}
	tpl := mustParse(t, `{{ f() }}`)
	_, err := Render(ctx, rc, tpl)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrCancelled, terr.Kind)
}
