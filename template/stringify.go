package template

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Display reconstructs template source text from a parsed Template. For a
// template made of a single raw chunk with no brace characters at all, it
// returns that chunk's string directly with no further allocation,
// supporting round-trip display of ordinary text without copying it.
func (t *Template) Display() string {
	if len(t.Chunks) == 1 {
		if raw, ok := t.Chunks[0].(RawChunk); ok {
			if !strings.ContainsRune(string(raw), '{') {
				return string(raw)
			}
		}
	}
	var b strings.Builder
	for _, c := range t.Chunks {
		switch v := c.(type) {
		case RawChunk:
			b.WriteString(escapeRaw(string(v)))
		case ExprChunk:
			b.WriteString("{{ ")
			b.WriteString(displayExpr(v.Expr))
			b.WriteString(" }}")
		}
	}
	return b.String()
}

// escapeRaw re-inserts escape underscores into raw text so that
// re-parsing it produces the same literal text rather than being misread
// as a key-open or escape sequence. A raw chunk can only ever end in a
// bare "{" immediately before an expression chunk if that brace was
// itself the closing brace of an escape sequence (the parser always
// consumes an escape's opening and closing brace together, and otherwise
// never leaves a raw chunk ending in an unescaped "{" directly adjacent to
// a following key) — so every case that needs escaping is fully contained
// within the raw chunk's own text, and no chunk-boundary lookahead is
// required.
func escapeRaw(s string) string {
	runes := []rune(s)
	var b strings.Builder
	i := 0
	for i < len(runes) {
		if runes[i] != '{' {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] == '_' {
			j++
		}
		if j < len(runes) && runes[j] == '{' {
			b.WriteByte('{')
			b.WriteByte('_')
			b.WriteString(string(runes[i+1 : j]))
			b.WriteByte('{')
			i = j + 1
			continue
		}
		b.WriteByte('{')
		i++
	}
	return b.String()
}

func displayExpr(e Expression) string {
	switch e.Kind {
	case ExprLiteral:
		return displayLiteral(e.Literal)
	case ExprIdentifier:
		return e.Identifier
	case ExprCall:
		return displayCall(e.Call)
	default:
		return ""
	}
}

func displayLiteral(v Value) string {
	switch v.Kind() {
	case KindNull:
		return "null"
	case KindBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInteger:
		return strconv.FormatInt(v.Int(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str())
	case KindBytes:
		return "b\"" + base64.StdEncoding.EncodeToString(v.BytesPayload()) + "\""
	default:
		return ""
	}
}

func displayCall(c *Call) string {
	parts := make([]string, 0, len(c.Positional)+len(c.KeywordOrder))
	for _, p := range c.Positional {
		parts = append(parts, displayExpr(p))
	}
	for _, k := range c.KeywordOrder {
		parts = append(parts, k+"="+displayExpr(c.Keyword[k]))
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}
