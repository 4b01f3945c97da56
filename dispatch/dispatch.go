// Package dispatch implements the HTTP exchange dispatcher (spec C8): it
// takes a built ticket, issues the HTTP call, and assembles the resulting
// exchange, optionally persisting it to history.
package dispatch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/LucasPickering/slumber/builder"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

// State names the dispatcher's state machine position for one exchange:
// Building -> Loading -> (Complete | Error | Cancelled).
type State int

const (
	StateBuilding State = iota
	StateLoading
	StateComplete
	StateError
	StateCancelled
)

// Client issues HTTP requests for built tickets. Each Client owns its own
// unshared *http.Transport (via go-cleanhttp's DefaultPooledClient),
// avoiding the cross-goroutine transport-reuse foot-gun of
// http.DefaultClient.
type Client struct {
	http *http.Client
}

// NewClient builds a Client with the default pooled transport.
func NewClient() *Client {
	return &Client{http: cleanhttp.DefaultPooledClient()}
}

// Options controls one dispatch: whether to persist the resulting
// exchange to history, overriding the recipe's own Persist default.
type Options struct {
	// PersistOverride, when non-nil, overrides the recipe's own Persist
	// flag for this dispatch only.
	PersistOverride *bool
}

// Result is the outcome of one Send call: the exchange built so far (may
// be partially populated, e.g. Response nil, if State is Error or
// Cancelled) and the state machine's terminal position.
type Result struct {
	Exchange *exchange.Exchange
	State    State
}

// Send issues ticket's request, builds the resulting Exchange, and — if
// persistence is enabled (by the recipe's own Persist flag, or
// opts.PersistOverride) — records it via rec. Cancellation is cooperative:
// if ctx is cancelled before the HTTP call commits an end_time, no
// exchange is recorded (§5: "must not be persisted on cancel").
func Send(ctx context.Context, c *Client, ticket *builder.Ticket, rec exchange.Recorder, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	req := ticket.Request
	ex := &exchange.Exchange{
		ID:        uuid.New(),
		Request:   req,
		StartTime: now(),
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		ex.Error = err.Error()
		return &Result{Exchange: ex, State: StateError}, template.WrapError(template.KindErrSend, err, "constructing HTTP request")
	}
	httpReq.Header = req.Headers.Clone()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			ex.Error = ctx.Err().Error()
			return &Result{Exchange: ex, State: StateCancelled}, template.WrapError(template.KindErrCancelled, ctx.Err(), "dispatch cancelled")
		}
		ex.Error = err.Error()
		return &Result{Exchange: ex, State: StateError}, template.WrapError(template.KindErrSend, err, "dispatching %s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()

	bodyReader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "br" {
		bodyReader = brotli.NewReader(bodyReader)
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		ex.Error = err.Error()
		return &Result{Exchange: ex, State: StateError}, template.WrapError(template.KindErrSend, err, "reading response body")
	}

	ex.Response = &exchange.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}
	ex.EndTime = now()

	result := &Result{Exchange: ex, State: StateComplete}

	if shouldPersist(ticket, opts) && rec != nil {
		if err := rec.InsertExchange(ctx, ex); err != nil {
			return result, template.WrapError(template.KindErrDatabase, err, "recording exchange")
		}
	}

	return result, nil
}

func shouldPersist(ticket *builder.Ticket, opts *Options) bool {
	if opts.PersistOverride != nil {
		return *opts.PersistOverride
	}
	if ticket.Recipe == nil {
		return false
	}
	return ticket.Recipe.Persist
}

// now is indirected so tests can't accidentally depend on wall-clock
// ordering across goroutines; production callers always get real time.
var now = func() time.Time { return time.Now() }
