package function

import (
	"unicode/utf8"

	"github.com/LucasPickering/slumber/template"
)

func argString(args template.Arguments, i int, fn string) (string, error) {
	v, ok := args.Pos(i)
	if !ok {
		return "", template.NewError(template.KindErrArgument, "%s: expected argument %d", fn, i)
	}
	s, err := v.ToDisplayString()
	if err != nil {
		return "", template.WrapError(template.KindErrArgument, err, "%s: argument %d", fn, i)
	}
	return s, nil
}

func kwString(args template.Arguments, name, def string) (string, error) {
	v, ok := args.Kw(name)
	if !ok {
		return def, nil
	}
	return v.ToDisplayString()
}

func kwBool(args template.Arguments, name string, def bool) bool {
	v, ok := args.Kw(name)
	if !ok {
		return def
	}
	return v.Kind() == template.KindBoolean && v.Bool()
}

// decodeBytes resolves the `decode` keyword ("text" -> String, failing on
// invalid UTF-8; "binary" -> Bytes unchanged) shared by command,
// response, and response_header. def is the mode assumed when the
// caller omits the keyword.
func decodeBytes(args template.Arguments, fn, def string, b []byte) (template.Value, error) {
	mode, err := kwString(args, "decode", def)
	if err != nil {
		return template.Value{}, template.WrapError(template.KindErrArgument, err, "%s: decode", fn)
	}
	switch mode {
	case "text":
		if !utf8.Valid(b) {
			return template.Value{}, template.NewError(template.KindErrInvalidUTF8, "%s: output is not valid UTF-8", fn)
		}
		return template.NewString(string(b)), nil
	case "binary":
		return template.NewBytes(b), nil
	default:
		return template.Value{}, template.NewError(template.KindErrArgument, "%s: unknown decode mode %q (expected text or binary)", fn, mode)
	}
}
