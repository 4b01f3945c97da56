package function

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name:     "command",
		Keywords: []string{"stdin", "decode", "trim"},
		Fn:       commandFn,
	})
}

// commandFn implements `command(argv)`: runs an external process from an
// Array<String> argv (argv[0] is the program), optionally piping a
// `stdin` keyword argument to it, and returns its captured stdout
// decoded per `decode` ("binary" (default) or "text") and trimmed per
// `trim` ("none" (default), "start", "end", "both"; applies only when
// the output is valid UTF-8). A non-zero exit always produces a Command
// error; there is no opt-out at this level (an embedder that wants to
// tolerate a given program's exit codes can wrap it in a shell that
// always exits 0).
func commandFn(ctx context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	argvVal, ok := args.Pos(0)
	if !ok || argvVal.Kind() != template.KindArray {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "command: expected an array of strings as argv")
	}
	elems := argvVal.Array()
	if len(elems) == 0 {
		return template.LazyValue{}, template.NewError(template.KindErrArgument, "command: argv must not be empty")
	}
	argv := make([]string, len(elems))
	for i, v := range elems {
		s, err := v.ToDisplayString()
		if err != nil {
			return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "command: argv[%d]", i)
		}
		argv[i] = s
	}

	trimMode, err := kwString(args, "trim", "none")
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "command: trim")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin, ok := args.Kw("stdin"); ok {
		b, err := stdin.ToBytes()
		if err != nil {
			return template.LazyValue{}, template.WrapError(template.KindErrArgument, err, "command: stdin")
		}
		cmd.Stdin = bytes.NewReader(b)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrCommand, err, "running %q: %s", argv[0], strings.TrimSpace(stderr.String()))
	}

	out := stdout.Bytes()
	if utf8.Valid(out) {
		out, err = applyTrim(out, trimMode)
	} else {
		_, err = applyTrim(nil, trimMode)
	}
	if err != nil {
		return template.LazyValue{}, err
	}
	v, err := decodeBytes(args, "command", "binary", out)
	if err != nil {
		return template.LazyValue{}, err
	}
	return lazy(v), nil
}

func applyTrim(b []byte, mode string) ([]byte, error) {
	switch mode {
	case "none", "":
		return b, nil
	case "start":
		return []byte(strings.TrimLeft(string(b), " \t\r\n")), nil
	case "end":
		return []byte(strings.TrimRight(string(b), " \t\r\n")), nil
	case "both":
		return []byte(strings.TrimSpace(string(b))), nil
	default:
		return nil, template.NewError(template.KindErrArgument, "unknown trim mode %q (expected none, start, end, or both)", mode)
	}
}
