package function

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/slumber/template"
)

func argv(elems ...string) template.Value {
	vs := make([]template.Value, len(elems))
	for i, e := range elems {
		vs[i] = template.NewString(e)
	}
	return template.NewArray(vs)
}

func TestCommandFnCapturesStdout(t *testing.T) {
	rc := newTestContext()
	lv, err := commandFn(context.Background(), rc, args(argv("echo", "hello")))
	require.NoError(t, err)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))
}

func TestCommandFnPipesStdin(t *testing.T) {
	rc := newTestContext()
	lv, err := commandFn(context.Background(), rc, kwArgs(
		[]template.Value{argv("cat")},
		map[string]template.Value{"stdin": template.NewString("piped text")},
	))
	require.NoError(t, err)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.Equal(t, "piped text", string(b))
}

func TestCommandFnTrimsOutput(t *testing.T) {
	rc := newTestContext()
	lv, err := commandFn(context.Background(), rc, kwArgs(
		[]template.Value{argv("echo", "hello")},
		map[string]template.Value{"trim": template.NewString("both")},
	))
	require.NoError(t, err)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestCommandFnNonZeroExitIsCommandError(t *testing.T) {
	rc := newTestContext()
	_, err := commandFn(context.Background(), rc, args(argv("sh", "-c", "exit 1")))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrCommand, tErr.Kind)
}

func TestCommandFnUnknownTrimModeIsArgumentError(t *testing.T) {
	rc := newTestContext()
	_, err := commandFn(context.Background(), rc, kwArgs(
		[]template.Value{argv("echo")},
		map[string]template.Value{"trim": template.NewString("sideways")},
	))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrArgument, tErr.Kind)
}

func TestCommandFnEmptyArgvIsArgumentError(t *testing.T) {
	rc := newTestContext()
	_, err := commandFn(context.Background(), rc, args(argv()))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrArgument, tErr.Kind)
}

func TestCommandFnDecodeTextReturnsString(t *testing.T) {
	rc := newTestContext()
	lv, err := commandFn(context.Background(), rc, kwArgs(
		[]template.Value{argv("echo", "hello")},
		map[string]template.Value{"decode": template.NewString("text"), "trim": template.NewString("both")},
	))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, template.KindString, v.Kind())
	assert.Equal(t, "hello", v.Str())
}

func TestCommandFnDefaultDecodeIsBinary(t *testing.T) {
	rc := newTestContext()
	lv, err := commandFn(context.Background(), rc, args(argv("echo", "hello")))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, template.KindBytes, v.Kind())
}
