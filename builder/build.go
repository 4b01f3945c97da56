package builder

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

// Ticket is an in-memory, fully rendered request ready to dispatch or
// inspect without sending (§4.7 step 5).
type Ticket struct {
	Request *exchange.Request
	Recipe  *collection.Recipe
}

// Record returns the rendered request for dry-run inspection without
// dispatching it.
func (t *Ticket) Record() *exchange.Request { return t.Request }

func fieldNames(fields []collection.QueryField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func headerFieldNames(fields []collection.HeaderField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Build renders every field of recipe concurrently against rc and
// assembles a wire-ready Ticket. A build may fail without any dispatch:
// rendering errors surface as a *BuildError and no exchange is recorded
// (§4.7).
func Build(ctx context.Context, rc template.Context, recipe *collection.Recipe, profileID *exchange.ProfileID, opts *Options) (*Ticket, error) {
	if recipe == nil {
		return nil, template.NewError(template.KindErrBuild, "unknown recipe")
	}
	if opts == nil {
		opts = NewOptions()
	}

	buildErr := newBuildError()

	queryNames := fieldNames(recipe.Query)
	headerNames := headerFieldNames(recipe.Headers)
	queryTpls := make([]*template.Template, len(recipe.Query))
	for i, q := range recipe.Query {
		queryTpls[i] = q.Value
	}
	headerTpls := make([]*template.Template, len(recipe.Headers))
	for i, h := range recipe.Headers {
		headerTpls[i] = h.Value
	}

	var (
		urlResult     fieldResult
		queryResults  []fieldResult
		headerResults []fieldResult
		bodyResult    *bodyRenderResult
		authResult    *authRenderResult
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		var ov *FieldOverride
		if opts.URLOverride != nil {
			ov = &FieldOverride{Value: *opts.URLOverride}
		}
		urlResult = renderField(ctx, rc, recipe.URL, ov)
	}()
	go func() {
		defer wg.Done()
		var errs map[string]error
		queryResults, errs = renderFields(ctx, rc, queryNames, queryTpls, opts.QueryOverrides)
		for name, err := range errs {
			buildErr.add("query."+name, err)
		}
	}()
	go func() {
		defer wg.Done()
		var errs map[string]error
		headerResults, errs = renderFields(ctx, rc, headerNames, headerTpls, opts.HeaderOverrides)
		for name, err := range errs {
			buildErr.add("header."+name, err)
		}
	}()
	go func() {
		defer wg.Done()
		bodyResult = renderBody(ctx, rc, recipe.Body, opts)
	}()
	go func() {
		defer wg.Done()
		authResult = renderAuth(ctx, rc, recipe.Auth)
	}()
	wg.Wait()

	if urlResult.err != nil {
		buildErr.add("url", urlResult.err)
	}
	if bodyResult != nil && bodyResult.err != nil {
		buildErr.add("body", bodyResult.err)
	}
	if authResult != nil && authResult.err != nil {
		buildErr.add("auth", authResult.err)
	}
	if buildErr.HasErrors() {
		return nil, buildErr
	}

	parsedURL, err := url.Parse(string(urlResult.bytes))
	if err != nil {
		return nil, template.WrapError(template.KindErrBuild, err, "invalid rendered URL %q", string(urlResult.bytes))
	}
	parsedURL.RawQuery = appendQueryInOrder(parsedURL.RawQuery, queryNames, queryResults)

	headers := make(http.Header)
	for i, r := range headerResults {
		if r.disabled {
			continue
		}
		headers.Add(headerNames[i], string(r.bytes))
	}
	if authResult != nil && authResult.header != "" {
		headers.Add("Authorization", authResult.header)
	}

	var body []byte
	if bodyResult != nil {
		body = bodyResult.body
		if bodyResult.contentType != "" && headers.Get("Content-Type") == "" {
			headers.Set("Content-Type", bodyResult.contentType)
		}
	}

	req := &exchange.Request{
		RecipeID:  exchange.RecipeID(recipe.ID),
		ProfileID: profileID,
		Method:    recipe.Method,
		URL:       parsedURL.String(),
		Headers:   headers,
		Body:      body,
	}
	return &Ticket{Request: req, Recipe: recipe}, nil
}

// appendQueryInOrder serializes rendered query params in recipe order,
// preserving duplicates (net/url.Values.Encode sorts by key, which the
// spec explicitly rules out), appending after any query string already
// present in the rendered URL itself.
func appendQueryInOrder(existing string, names []string, results []fieldResult) string {
	var buf bytes.Buffer
	buf.WriteString(existing)
	for i, r := range results {
		if r.disabled {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(names[i]))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(string(r.bytes)))
	}
	return buf.String()
}
