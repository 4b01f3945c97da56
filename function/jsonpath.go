package function

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/PaesslerAG/jsonpath"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name:     "jsonpath",
		Keywords: []string{"mode"},
		Fn:       jsonpathFn,
	})
}

// jsonpathFn implements `jsonpath(data, query, mode="auto")`: parses data
// as JSON text (failing on non-UTF-8 or invalid JSON), evaluates the
// JSONPath expression against the parsed tree, and resolves the match(es)
// per mode: "single" requires exactly one match, "array" always returns
// the array of matches, and "auto" unwraps a lone match to its value and
// otherwise returns the array.
func jsonpathFn(_ context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	v, ok := args.Pos(0)
	if !ok {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "jsonpath: expected a value argument")
	}
	query, err := argString(args, 1, "jsonpath")
	if err != nil {
		return template.LazyValue{}, err
	}
	mode, err := kwString(args, "mode", "auto")
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "jsonpath: mode")
	}
	switch mode {
	case "auto", "array", "single":
	default:
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "jsonpath: unknown mode %q (expected auto, array, or single)", mode)
	}

	raw, err := v.ToBytes()
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "jsonpath: coercing data")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "jsonpath: parsing data as JSON")
	}

	result, err := jsonpath.Get(query, tree)
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "jsonpath: evaluating %q", query)
	}
	matches, isArray := result.([]any)

	switch mode {
	case "single":
		if !isArray {
			return lazy(template.FromJSON(result)), nil
		}
		if len(matches) != 1 {
			return template.LazyValue{}, template.NewError(template.KindErrArgument, "jsonpath: expected exactly one match, got %d", len(matches))
		}
		return lazy(template.FromJSON(matches[0])), nil
	case "array":
		if !isArray {
			matches = []any{result}
		}
		return lazy(template.FromJSON(matches)), nil
	default: // auto
		if isArray {
			if len(matches) == 1 {
				return lazy(template.FromJSON(matches[0])), nil
			}
			return lazy(template.FromJSON(matches)), nil
		}
		return lazy(template.FromJSON(result)), nil
	}
}
