package template

import (
	"context"
	"io"
	"sync"
	"unicode/utf8"
)

// LazyKind discriminates the shape of one chunk's evaluated result.
type LazyKind int

const (
	// LazyConcrete holds a fully resolved Value.
	LazyConcrete LazyKind = iota
	// LazyStream holds an io.Reader the consumer may stream from instead
	// of buffering, when the context reports CanStream.
	LazyStream
	// LazyNested holds the RenderedOutput of a nested template (used when
	// a function's own template-valued result must be re-collected, e.g.
	// profile field chains).
	LazyNested
	// LazyUndefined marks a field that resolved to no value: no override
	// and no profile entry, or an override that explicitly omits it.
	LazyUndefined
)

// LazyValue is one expression chunk's evaluated result, not yet collected
// into the template's final Value/bytes/stream form.
type LazyValue struct {
	Kind         LazyKind
	Value        Value
	Stream       io.Reader
	StreamSource string
	Nested       *RenderedOutput
}

func concreteLazy(v Value) LazyValue { return LazyValue{Kind: LazyConcrete, Value: v} }

// ToBytes resolves this chunk to raw bytes, reading a stream fully if
// necessary, or failing with FieldUnknown if the chunk is Undefined.
func (lv LazyValue) ToBytes(fieldName string) ([]byte, error) {
	switch lv.Kind {
	case LazyConcrete:
		return lv.Value.ToBytes()
	case LazyStream:
		b, err := io.ReadAll(lv.Stream)
		if err != nil {
			return nil, WrapError(KindErrFile, err, "reading stream %s", lv.StreamSource)
		}
		return b, nil
	case LazyNested:
		return lv.Nested.CollectBytes()
	case LazyUndefined:
		return nil, NewError(KindErrFieldUnknown, "field %q is undefined", fieldName)
	default:
		return nil, NewError(KindErrFieldUnknown, "unresolvable field %q", fieldName)
	}
}

// ToValue resolves this chunk to a Value, used when the chunk is the sole
// chunk of a template (the "single expression chunk" collection rule).
func (lv LazyValue) ToValue(fieldName string) (Value, error) {
	switch lv.Kind {
	case LazyConcrete:
		return lv.Value, nil
	case LazyStream:
		b, err := io.ReadAll(lv.Stream)
		if err != nil {
			return Value{}, WrapError(KindErrFile, err, "reading stream %s", lv.StreamSource)
		}
		return NewBytes(b), nil
	case LazyNested:
		return lv.Nested.CollectValue()
	case LazyUndefined:
		return Value{}, NewError(KindErrFieldUnknown, "field %q is undefined", fieldName)
	default:
		return Value{}, NewError(KindErrFieldUnknown, "unresolvable field %q", fieldName)
	}
}

// chunkResult is one chunk's position-indexed evaluation outcome.
type chunkResult struct {
	isRaw bool
	raw   string
	lazy  LazyValue
	err   error
}

// RenderedOutput is the ordered, per-chunk result of evaluating every
// chunk in a Template concurrently.
type RenderedOutput struct {
	results []chunkResult
}

// firstError returns the first error in chunk order, or nil.
func (r *RenderedOutput) firstError() error {
	for _, c := range r.results {
		if c.err != nil {
			return c.err
		}
	}
	return nil
}

// CollectValue applies the template's value-collection rule: a template
// of exactly one expression chunk returns that chunk's Value directly
// (preserving its type); any other chunk shape concatenates to bytes and
// returns a String if valid UTF-8, else Bytes.
func (r *RenderedOutput) CollectValue() (Value, error) {
	if err := r.firstError(); err != nil {
		return Value{}, err
	}
	if len(r.results) == 1 && !r.results[0].isRaw {
		return r.results[0].lazy.ToValue("")
	}
	b, err := r.CollectBytes()
	if err != nil {
		return Value{}, err
	}
	if utf8.Valid(b) {
		return NewString(string(b)), nil
	}
	return NewBytes(b), nil
}

// CollectBytes concatenates every chunk's bytes in order, short-circuiting
// on the first error encountered in chunk order.
func (r *RenderedOutput) CollectBytes() ([]byte, error) {
	if err := r.firstError(); err != nil {
		return nil, err
	}
	var out []byte
	for _, c := range r.results {
		if c.isRaw {
			out = append(out, c.raw...)
			continue
		}
		b, err := c.lazy.ToBytes("")
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Render evaluates every chunk of tpl concurrently against rc, then
// collects the result per the value-collection rule.
func Render(ctx context.Context, rc Context, tpl *Template) (Value, error) {
	out, err := renderChunks(ctx, rc, tpl)
	if err != nil {
		return Value{}, err
	}
	return out.CollectValue()
}

// RenderBytes evaluates tpl and collects its chunks directly to bytes,
// skipping the single-chunk Value-preservation rule (used by request
// fields that are always string-shaped, e.g. header values).
func RenderBytes(ctx context.Context, rc Context, tpl *Template) ([]byte, error) {
	out, err := renderChunks(ctx, rc, tpl)
	if err != nil {
		return nil, err
	}
	return out.CollectBytes()
}

func renderChunks(ctx context.Context, rc Context, tpl *Template) (*RenderedOutput, error) {
	results := make([]chunkResult, len(tpl.Chunks))
	var wg sync.WaitGroup
	for i, chunk := range tpl.Chunks {
		switch c := chunk.(type) {
		case RawChunk:
			results[i] = chunkResult{isRaw: true, raw: string(c)}
		case ExprChunk:
			wg.Add(1)
			go func(i int, c ExprChunk) {
				defer wg.Done()
				lv, err := evalExpr(ctx, rc, c.Expr)
				results[i] = chunkResult{lazy: lv, err: err}
			}(i, c)
		}
	}
	wg.Wait()
	return &RenderedOutput{results: results}, nil
}

func evalExpr(ctx context.Context, rc Context, expr Expression) (LazyValue, error) {
	select {
	case <-ctx.Done():
		return LazyValue{}, WrapError(KindErrCancelled, ctx.Err(), "render cancelled")
	default:
	}

	switch expr.Kind {
	case ExprLiteral:
		return concreteLazy(expr.Literal), nil
	case ExprIdentifier:
		v, ok, err := rc.ResolveField(ctx, expr.Identifier)
		if err != nil {
			return LazyValue{}, FieldNestedError(expr.Identifier, err)
		}
		if !ok {
			return LazyValue{Kind: LazyUndefined}, nil
		}
		return concreteLazy(v), nil
	case ExprCall:
		return evalCall(ctx, rc, expr.Call)
	default:
		return LazyValue{}, NewError(KindErrParse, "malformed expression")
	}
}

func evalCall(ctx context.Context, rc Context, call *Call) (LazyValue, error) {
	spec, ok := rc.Functions()[call.Name]
	if !ok {
		return LazyValue{}, NewError(KindErrArgument, "unknown function %q", call.Name)
	}
	for name := range call.Keyword {
		if !containsStr(spec.Keywords, name) {
			return LazyValue{}, NewError(KindErrArgument, "function %q does not accept keyword argument %q", call.Name, name)
		}
	}

	args := Arguments{
		Positional: make([]Value, len(call.Positional)),
		Keyword:    make(map[string]Value, len(call.Keyword)),
	}
	for i, pe := range call.Positional {
		lv, err := evalExpr(ctx, rc, pe)
		if err != nil {
			return LazyValue{}, err
		}
		v, err := lv.ToValue(call.Name)
		if err != nil {
			return LazyValue{}, err
		}
		args.Positional[i] = v
	}
	for name, ke := range call.Keyword {
		lv, err := evalExpr(ctx, rc, ke)
		if err != nil {
			return LazyValue{}, err
		}
		v, err := lv.ToValue(name)
		if err != nil {
			return LazyValue{}, err
		}
		args.Keyword[name] = v
	}

	return spec.Fn(ctx, rc, args)
}

func containsStr(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
