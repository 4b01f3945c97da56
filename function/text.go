package function

import (
	"context"
	"unicode/utf8"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name:     "trim",
		Keywords: []string{"mode"},
		Fn:       trimFn,
	})
	register(template.FuncSpec{
		Name: "concat",
		Fn:   concatFn,
	})
	register(template.FuncSpec{
		Name: "sensitive",
		Fn:   sensitiveFn,
	})
}

// trimFn implements `trim(value, mode="none")`, trimming ASCII whitespace
// from the value's string form.
func trimFn(_ context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	v, ok := args.Pos(0)
	if !ok {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "trim: expected a value argument")
	}
	mode, err := kwString(args, "mode", "none")
	if err != nil {
		return template.LazyValue{}, err
	}
	b, err := v.ToBytes()
	if err != nil {
		return template.LazyValue{}, err
	}
	trimmed, err := applyTrim(b, mode)
	if err != nil {
		return template.LazyValue{}, err
	}
	return lazy(template.NewString(string(trimmed))), nil
}

// concatFn implements `concat(parts)`: concatenates the byte
// representation of every element of an Array<String> into a single
// String, failing if any element is not valid UTF-8 bytes.
func concatFn(_ context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	partsVal, ok := args.Pos(0)
	if !ok || partsVal.Kind() != template.KindArray {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "concat: expected an array of strings as parts")
	}

	var out []byte
	for i, v := range partsVal.Array() {
		b, err := v.ToBytes()
		if err != nil {
			return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "concat: parts[%d]", i)
		}
		if !utf8.Valid(b) {
			return template.LazyValue{}, template.NewError(template.KindErrInvalidUTF8, "concat: parts[%d] is not valid UTF-8", i)
		}
		out = append(out, b...)
	}
	return lazy(template.NewString(string(out))), nil
}

// sensitiveFn implements `sensitive(value)`: passes the value through
// unchanged, tagging it so history and CLI output can mask it rather than
// persisting or printing it in full.
func sensitiveFn(_ context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	v, ok := args.Pos(0)
	if !ok {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "sensitive: expected a value argument")
	}
	return lazy(v.WithSensitive()), nil
}
