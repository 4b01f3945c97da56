package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBytesStringPassesThrough(t *testing.T) {
	b, err := NewString("hello").ToBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestToBytesIntegerStringifies(t *testing.T) {
	b, err := NewInt(42).ToBytes()
	require.NoError(t, err)
	assert.Equal(t, "42", string(b))
}

func TestToBytesNullIsEmpty(t *testing.T) {
	b, err := NewNull().ToBytes()
	require.NoError(t, err)
	assert.Equal(t, "", string(b))
}

func TestToDisplayStringInvalidUTF8Bytes(t *testing.T) {
	_, err := NewBytes([]byte{0xff, 0xfe}).ToDisplayString()
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindErrInvalidUTF8, terr.Kind)
}

func TestToBytesObjectEncodesJSON(t *testing.T) {
	o := NewObject()
	o.Set("a", NewInt(1))
	o.Set("b", NewString("x"))
	b, err := NewObjectValue(o).ToBytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":"x"}`, string(b))
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", NewInt(1))
	o.Set("a", NewInt(2))
	o.Set("z", NewInt(3)) // overwrite, should not move
	assert.Equal(t, []string{"z", "a"}, o.Keys())
	v, ok := o.Get("z")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int())
}

func TestToJSONBytesEncodesAsIntArrayNeverErrors(t *testing.T) {
	j, err := NewBytes([]byte{0xff, 0xfe, 0x41}).ToJSON()
	require.NoError(t, err)
	arr, ok := j.([]any)
	require.True(t, ok)
	assert.Equal(t, []any{int64(0xff), int64(0xfe), int64(0x41)}, arr)
}

func TestFromJSONRoundTrip(t *testing.T) {
	v := FromJSON(map[string]any{"n": float64(3)})
	j, err := v.ToJSON()
	require.NoError(t, err)
	m, ok := j.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), m["n"])
}
