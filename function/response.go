package function

import (
	"context"
	"strings"
	"time"

	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name:     "response",
		Keywords: []string{"decode", "trigger"},
		Fn:       responseFn,
	})
	register(template.FuncSpec{
		Name:     "response_header",
		Keywords: []string{"decode", "trigger"},
		Fn:       responseHeaderFn,
	})
	register(template.FuncSpec{
		Name: "profile",
		Fn:   profileFn,
	})
}

// parseTrigger decodes the `trigger` keyword argument's string form:
// "never" (default), "no_history", "always", or "expire:<duration>" (Go
// duration syntax, e.g. "expire:5m").
func parseTrigger(s string) (exchange.RequestTrigger, error) {
	switch {
	case s == "" || s == "never":
		return exchange.Never(), nil
	case s == "no_history":
		return exchange.NoHistory(), nil
	case s == "always":
		return exchange.Always(), nil
	case strings.HasPrefix(s, "expire:"):
		d, err := time.ParseDuration(strings.TrimPrefix(s, "expire:"))
		if err != nil {
			return exchange.RequestTrigger{}, template.WrapError(template.KindErrArgument, err, "invalid expire duration in trigger %q", s)
		}
		return exchange.Expire(d), nil
	default:
		return exchange.RequestTrigger{}, template.NewError(template.KindErrArgument, "unknown trigger %q", s)
	}
}

func resolveTrigger(args template.Arguments) (exchange.RequestTrigger, error) {
	s, err := kwString(args, "trigger", "never")
	if err != nil {
		return exchange.RequestTrigger{}, err
	}
	return parseTrigger(s)
}

// responseFn implements `response(recipe_id, decode=, trigger=)`:
// resolves the body of the latest (or freshly triggered) exchange for
// recipe_id, decoded per `decode` ("binary" (default) or "text").
func responseFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	recipeID, err := argString(args, 0, "response")
	if err != nil {
		return template.LazyValue{}, err
	}
	trigger, err := resolveTrigger(args)
	if err != nil {
		return template.LazyValue{}, err
	}
	ex, err := rc.Responses().LatestResponse(ctx, exchange.RecipeID(recipeID), trigger)
	if err != nil {
		return template.LazyValue{}, err
	}
	if ex.Response == nil {
		return template.LazyValue{}, template.NewError(template.KindErrResponseMissing, "recipe %q has no response", recipeID)
	}
	v, err := decodeBytes(args, "response", "binary", ex.Response.Body)
	if err != nil {
		return template.LazyValue{}, err
	}
	return lazy(v), nil
}

// responseHeaderFn implements `response_header(recipe_id, header,
// decode=, trigger=)`: as responseFn but for a single header value,
// decoded per `decode` ("text" (default) or "binary").
func responseHeaderFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	recipeID, err := argString(args, 0, "response_header")
	if err != nil {
		return template.LazyValue{}, err
	}
	header, err := argString(args, 1, "response_header")
	if err != nil {
		return template.LazyValue{}, err
	}
	trigger, err := resolveTrigger(args)
	if err != nil {
		return template.LazyValue{}, err
	}
	ex, err := rc.Responses().LatestResponse(ctx, exchange.RecipeID(recipeID), trigger)
	if err != nil {
		return template.LazyValue{}, err
	}
	if ex.Response == nil {
		return template.LazyValue{}, template.NewError(template.KindErrResponseMissing, "recipe %q has no response", recipeID)
	}
	values := ex.Response.Headers.Values(header)
	if len(values) == 0 {
		return template.LazyValue{}, template.NewError(template.KindErrResponseMissingHeader, "recipe %q response has no header %q", recipeID, header)
	}
	v, err := decodeBytes(args, "response_header", "text", []byte(values[0]))
	if err != nil {
		return template.LazyValue{}, err
	}
	return lazy(v), nil
}

// profileFn implements `profile(field)`: the function-call form of bare
// identifier field resolution, letting a field name be computed
// dynamically rather than fixed at parse time. It shares the same
// override-then-memoized-render path as identifier expressions.
func profileFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	field, err := argString(args, 0, "profile")
	if err != nil {
		return template.LazyValue{}, err
	}
	v, ok, err := rc.ResolveField(ctx, field)
	if err != nil {
		return template.LazyValue{}, template.FieldNestedError(field, err)
	}
	if !ok {
		return template.LazyValue{Kind: template.LazyUndefined}, nil
	}
	return lazy(v), nil
}
