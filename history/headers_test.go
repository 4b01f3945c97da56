package history

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHeadersRoundtrips(t *testing.T) {
	h := http.Header{}
	h.Add("Content-Type", "application/json")
	h.Add("X-Multi", "one")
	h.Add("X-Multi", "two")

	blob := encodeHeaders(h)
	decoded, err := decodeHeaders(blob)
	require.NoError(t, err)

	assert.Equal(t, []string{"application/json"}, decoded.Values("Content-Type"))
	assert.Equal(t, []string{"one", "two"}, decoded.Values("X-Multi"))
}

func TestDecodeHeadersEmptyBlobIsEmptyHeader(t *testing.T) {
	decoded, err := decodeHeaders(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeHeadersMalformedEntryErrors(t *testing.T) {
	_, err := decodeHeaders([]byte("no-colon-here\n"))
	require.Error(t, err)
}
