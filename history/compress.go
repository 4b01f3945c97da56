package history

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte gzip stream header, used to sniff whether a
// stored body blob is compressed or a legacy/small uncompressed blob.
var gzipMagic = []byte{0x1f, 0x8b}

// compressThreshold is the body size below which compressing isn't worth
// the per-call overhead.
const compressThreshold = 256

// compressBody gzip-compresses body if it's large enough to be worth it,
// returning it unchanged otherwise. nil passes through as nil so optional
// request bodies stay distinguishable from empty ones.
func compressBody(body []byte) ([]byte, error) {
	if len(body) < compressThreshold {
		return body, nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("gzip-compressing body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressBody reverses compressBody. A blob not starting with the gzip
// magic number is assumed to be a legacy or below-threshold uncompressed
// blob and is returned as-is.
func decompressBody(blob []byte) ([]byte, error) {
	if len(blob) < len(gzipMagic) || !bytes.Equal(blob[:len(gzipMagic)], gzipMagic) {
		return blob, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip-decompressing body: %w", err)
	}
	return out, nil
}
