// Package exchange holds the wire-level domain types shared by the
// template, function, builder, dispatch, history and engine packages. It
// exists so those packages can refer to a request/response/trigger shape
// without importing each other.
package exchange

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RecipeID identifies a recipe within a collection's tree. Users choose
// their own mnemonic IDs in source, so this is a plain string newtype
// rather than an opaque UUID.
type RecipeID string

// ProfileID identifies a profile within a collection.
type ProfileID string

// Request is the fully-rendered, wire-ready form of a recipe: method, URL,
// headers and body, with no further template expressions left to resolve.
type Request struct {
	ID        uuid.UUID
	ProfileID *ProfileID
	RecipeID  RecipeID
	Method    string
	URL       string
	Headers   http.Header
	Body      []byte
}

// Response is the HTTP response half of an exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Exchange pairs a dispatched request with its response (or lack of one,
// if the dispatch failed before a response arrived) and its timing.
type Exchange struct {
	ID        uuid.UUID
	Request   *Request
	Response  *Response
	StartTime time.Time
	EndTime   time.Time
	Error     string // non-empty if the dispatch itself failed (network error, cancellation)
}

// Duration is the wall-clock time the exchange took to complete.
func (e *Exchange) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// ProfileFilterKind selects which profile(s) a history query considers.
type ProfileFilterKind int

const (
	// ProfileFilterNone matches exchanges with no profile selected.
	ProfileFilterNone ProfileFilterKind = iota
	// ProfileFilterSome matches exchanges recorded under a specific profile.
	ProfileFilterSome
	// ProfileFilterAll matches exchanges regardless of profile.
	ProfileFilterAll
)

// ProfileFilter narrows a history lookup to a profile, no profile, or any.
type ProfileFilter struct {
	Kind ProfileFilterKind
	ID   ProfileID
}

// FilterNone builds a filter matching only profile-less exchanges.
func FilterNone() ProfileFilter { return ProfileFilter{Kind: ProfileFilterNone} }

// FilterProfile builds a filter matching exchanges recorded under id.
func FilterProfile(id ProfileID) ProfileFilter {
	return ProfileFilter{Kind: ProfileFilterSome, ID: id}
}

// FilterAll builds a filter matching any profile.
func FilterAll() ProfileFilter { return ProfileFilter{Kind: ProfileFilterAll} }

// TriggerKind selects the chaining policy for a `response`/`response_header`
// call: whether it may read history, dispatch fresh, or refuse entirely.
type TriggerKind int

const (
	// TriggerNever never dispatches a fresh request; only reads the latest
	// stored exchange for the recipe, or fails with ResponseMissing. This
	// is the default when no trigger argument is given.
	TriggerNever TriggerKind = iota
	// TriggerNoHistory reuses the latest stored exchange if there is one,
	// and dispatches a fresh request only when history has none.
	TriggerNoHistory
	// TriggerExpire dispatches a fresh request if the latest stored
	// exchange is older than Expire, otherwise reuses it.
	TriggerExpire
	// TriggerAlways always dispatches a fresh request, ignoring any
	// stored exchange entirely.
	TriggerAlways
)

// RequestTrigger is the policy attached to a `response`/`response_header`
// call controlling whether and when it re-dispatches the referenced recipe.
type RequestTrigger struct {
	Kind   TriggerKind
	Expire time.Duration
}

// Never is the default trigger policy: use history only.
func Never() RequestTrigger { return RequestTrigger{Kind: TriggerNever} }

// NoHistory uses the stored exchange if any, else dispatches fresh.
func NoHistory() RequestTrigger { return RequestTrigger{Kind: TriggerNoHistory} }

// Expire dispatches fresh only if the latest exchange is older than d.
func Expire(d time.Duration) RequestTrigger {
	return RequestTrigger{Kind: TriggerExpire, Expire: d}
}

// Always always dispatches a fresh request, ignoring any stored exchange.
func Always() RequestTrigger { return RequestTrigger{Kind: TriggerAlways} }

// RequiresDispatch reports whether resolving this trigger may require
// sending a fresh HTTP request (as opposed to a pure history read).
func (t RequestTrigger) RequiresDispatch() bool {
	return t.Kind == TriggerNoHistory || t.Kind == TriggerExpire || t.Kind == TriggerAlways
}

// Recorder persists a completed exchange to history. The dispatch package
// depends only on this narrow interface rather than importing the history
// package directly, the same leaf-interface strategy the template package
// uses for ResponseSource/Prompter; history.CollectionDatabase implements
// it without history needing to import dispatch.
type Recorder interface {
	InsertExchange(ctx context.Context, ex *Exchange) error
}
