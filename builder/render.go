package builder

import (
	"context"
	"sync"

	"github.com/LucasPickering/slumber/template"
)

// fieldResult is one positionally-addressed field's render outcome.
type fieldResult struct {
	value    template.Value
	bytes    []byte
	disabled bool
	err      error
}

// renderField renders tpl to bytes against rc, or returns the override
// value directly without ever touching the template, matching §4.7 step 3
// ("each enabled query param ... with optional value override").
func renderField(ctx context.Context, rc template.Context, tpl *template.Template, override *FieldOverride) fieldResult {
	if override != nil {
		if override.Disable {
			return fieldResult{disabled: true}
		}
		b, err := override.Value.ToBytes()
		return fieldResult{value: override.Value, bytes: b, err: err}
	}
	if tpl == nil {
		return fieldResult{disabled: true}
	}
	b, err := template.RenderBytes(ctx, rc, tpl)
	return fieldResult{bytes: b, err: err}
}

// renderFields runs a named batch of template renders concurrently,
// returning one fieldResult per input and a fan-in'd map of name->error
// for every field that failed.
func renderFields(ctx context.Context, rc template.Context, names []string, tpls []*template.Template, overrides map[int]FieldOverride) ([]fieldResult, map[string]error) {
	results := make([]fieldResult, len(tpls))
	var wg sync.WaitGroup
	for i, tpl := range tpls {
		wg.Add(1)
		go func(i int, tpl *template.Template) {
			defer wg.Done()
			var ov *FieldOverride
			if o, ok := overrides[i]; ok {
				ov = &o
			}
			results[i] = renderField(ctx, rc, tpl, ov)
		}(i, tpl)
	}
	wg.Wait()

	errs := make(map[string]error)
	for i, r := range results {
		if r.err != nil {
			errs[names[i]] = r.err
		}
	}
	return results, errs
}
