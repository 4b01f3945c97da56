package function

import (
	"context"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name:     "prompt",
		Keywords: []string{"default", "sensitive"},
		Fn:       promptFn,
	})
	register(template.FuncSpec{
		Name: "select",
		Fn:   selectFn,
	})
}

// promptFn implements `prompt(message, default=, sensitive=)`: asks the
// render context's Prompter for a free-text answer.
func promptFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	message, err := argString(args, 0, "prompt")
	if err != nil {
		return template.LazyValue{}, err
	}
	p := template.Prompt{Sensitive: kwBool(args, "sensitive", false)}
	if def, ok := args.Kw("default"); ok {
		s, err := def.ToDisplayString()
		if err != nil {
			return template.LazyValue{}, err
		}
		p.Default = &s
	}
	p.Message = message
	answer, err := rc.Prompter().Prompt(ctx, p)
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "prompt %q", message)
	}
	v := template.NewString(answer)
	if p.Sensitive {
		v = v.WithSensitive()
	}
	return lazy(v), nil
}

// selectFn implements `select(message, options)`: asks the render
// context's Prompter to choose among a fixed set of options, where
// options is an Array of String values.
func selectFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	message, err := argString(args, 0, "select")
	if err != nil {
		return template.LazyValue{}, err
	}
	optsVal, ok := args.Pos(1)
	if !ok || optsVal.Kind() != template.KindArray {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "select: expected an array of options as the second argument")
	}
	options := make([]string, len(optsVal.Array()))
	for i, v := range optsVal.Array() {
		s, err := v.ToDisplayString()
		if err != nil {
			return template.LazyValue{}, err
		}
		options[i] = s
	}
	answer, err := rc.Prompter().Select(ctx, template.Select{Message: message, Options: options})
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "select %q", message)
	}
	return lazy(template.NewString(answer)), nil
}
