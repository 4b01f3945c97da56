package function

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/slumber/template"
)

func TestFileFnReadsFullyWhenNotStreaming(t *testing.T) {
	rc := newTestContext()
	require.NoError(t, afero.WriteFile(rc.fs, "/secrets/token.txt", []byte("s3kr3t"), 0o644))

	lv, err := fileFn(context.Background(), rc, args(template.NewString("/secrets/token.txt")))
	require.NoError(t, err)
	assert.Equal(t, template.LazyConcrete, lv.Kind)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.Equal(t, "s3kr3t", string(b))
}

func TestFileFnStreamsWhenContextAllowsIt(t *testing.T) {
	rc := newTestContext()
	rc.canStream = true
	require.NoError(t, afero.WriteFile(rc.fs, "/data.bin", []byte("payload"), 0o644))

	lv, err := fileFn(context.Background(), rc, args(template.NewString("/data.bin")))
	require.NoError(t, err)
	assert.Equal(t, template.LazyStream, lv.Kind)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
}

func TestFileFnMissingFileIsFileError(t *testing.T) {
	rc := newTestContext()
	_, err := fileFn(context.Background(), rc, args(template.NewString("/nope.txt")))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrFile, tErr.Kind)
}
