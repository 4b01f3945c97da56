package builder

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/url"
	"sync"

	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/template"
)

// bodyRenderResult is the rendered form of a recipe's body, plus a
// content-type hint to apply when the recipe doesn't already set one
// explicitly (§4.7 step 4: "content-type applied if hinted and not
// already set").
type bodyRenderResult struct {
	body        []byte
	contentType string
	err         error
}

func renderBody(ctx context.Context, rc template.Context, body *collection.Body, opts *Options) *bodyRenderResult {
	if body == nil || body.Kind == collection.BodyNone {
		return nil
	}

	switch body.Kind {
	case collection.BodyRaw:
		return renderRawBody(ctx, rc, body, opts, "")
	case collection.BodyJSON:
		return renderRawBody(ctx, rc, body, opts, "application/json")
	case collection.BodyFormURLEncoded:
		return renderFormURLEncodedBody(ctx, rc, body, opts)
	case collection.BodyFormMultipart:
		return renderMultipartBody(ctx, rc, body, opts)
	default:
		return &bodyRenderResult{err: template.NewError(template.KindErrBuild, "unknown body kind")}
	}
}

func renderRawBody(ctx context.Context, rc template.Context, body *collection.Body, opts *Options, contentType string) *bodyRenderResult {
	var ov *FieldOverride
	if opts.BodyOverride != nil {
		ov = &FieldOverride{Value: *opts.BodyOverride}
	}
	r := renderField(ctx, rc, body.Raw, ov)
	if r.err != nil {
		return &bodyRenderResult{err: r.err}
	}
	return &bodyRenderResult{body: r.bytes, contentType: contentType}
}

// formFieldResult is one form field's fully rendered name/value pair.
type formFieldResult struct {
	name     string
	value    []byte
	disabled bool
	err      error
}

// renderFormFields concurrently renders both the name and value template
// of every form field, applying positional value overrides.
func renderFormFields(ctx context.Context, rc template.Context, form []collection.FormField, overrides map[int]FieldOverride) ([]formFieldResult, error) {
	out := make([]formFieldResult, len(form))
	var wg sync.WaitGroup
	for i, f := range form {
		wg.Add(1)
		go func(i int, f collection.FormField) {
			defer wg.Done()

			var ov *FieldOverride
			if o, ok := overrides[i]; ok {
				ov = &o
			}
			valueRes := renderField(ctx, rc, f.Value, ov)
			if valueRes.disabled {
				out[i] = formFieldResult{disabled: true}
				return
			}
			if valueRes.err != nil {
				out[i] = formFieldResult{err: valueRes.err}
				return
			}

			name, err := template.RenderBytes(ctx, rc, f.Name)
			if err != nil {
				out[i] = formFieldResult{err: err}
				return
			}
			out[i] = formFieldResult{name: string(name), value: valueRes.bytes}
		}(i, f)
	}
	wg.Wait()

	for i, r := range out {
		if r.err != nil {
			return nil, template.WrapError(template.KindErrBuild, r.err, "form field %d", i)
		}
	}
	return out, nil
}

func renderFormURLEncodedBody(ctx context.Context, rc template.Context, body *collection.Body, opts *Options) *bodyRenderResult {
	results, err := renderFormFields(ctx, rc, body.Form, opts.FormOverrides)
	if err != nil {
		return &bodyRenderResult{err: err}
	}

	var buf bytes.Buffer
	first := true
	for _, r := range results {
		if r.disabled {
			continue
		}
		if !first {
			buf.WriteByte('&')
		}
		first = false
		buf.WriteString(url.QueryEscape(r.name))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(string(r.value)))
	}
	return &bodyRenderResult{body: buf.Bytes(), contentType: "application/x-www-form-urlencoded"}
}

func renderMultipartBody(ctx context.Context, rc template.Context, body *collection.Body, opts *Options) *bodyRenderResult {
	results, err := renderFormFields(ctx, rc, body.Form, opts.FormOverrides)
	if err != nil {
		return &bodyRenderResult{err: err}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, r := range results {
		if r.disabled {
			continue
		}
		fw, ferr := w.CreateFormField(r.name)
		if ferr != nil {
			return &bodyRenderResult{err: template.WrapError(template.KindErrBuild, ferr, "multipart field %q", r.name)}
		}
		if _, werr := fw.Write(r.value); werr != nil {
			return &bodyRenderResult{err: template.WrapError(template.KindErrBuild, werr, "multipart field %q", r.name)}
		}
	}
	if cerr := w.Close(); cerr != nil {
		return &bodyRenderResult{err: template.WrapError(template.KindErrBuild, cerr, "closing multipart body")}
	}
	return &bodyRenderResult{body: buf.Bytes(), contentType: w.FormDataContentType()}
}
