package history

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// encodeHeaders serializes h as repeated "name:value\n" entries. Header
// names never contain a colon and values never contain a newline per the
// HTTP spec, so the delimiters are unambiguous without escaping.
func encodeHeaders(h http.Header) []byte {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, value := range h[name] {
			b.WriteString(name)
			b.WriteByte(':')
			b.WriteString(value)
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

// decodeHeaders parses the "name:value\n" blob back into an http.Header,
// preserving repeated headers as repeated values in encounter order.
func decodeHeaders(blob []byte) (http.Header, error) {
	h := http.Header{}
	if len(blob) == 0 {
		return h, nil
	}
	lines := strings.Split(string(blob), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("malformed header entry %q: missing colon", line)
		}
		name, value := line[:idx], line[idx+1:]
		h.Add(name, value)
	}
	return h, nil
}
