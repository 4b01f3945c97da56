package collection

import "github.com/LucasPickering/slumber/template"

// AuthKind discriminates a recipe's authentication scheme.
type AuthKind int

const (
	AuthNone AuthKind = iota
	AuthBasic
	AuthBearer
)

// Auth is a recipe's authentication template. Exactly one of the
// Basic/Bearer field groups is meaningful, selected by Kind.
type Auth struct {
	Kind     AuthKind
	Username *template.Template // AuthBasic
	Password *template.Template // AuthBasic
	Token    *template.Template // AuthBearer
}

// HeaderField is one request header: a static name and a templated value.
type HeaderField struct {
	Name  string
	Value *template.Template
}

// QueryField is one query string parameter: a static name and a templated
// value.
type QueryField struct {
	Name  string
	Value *template.Template
}

// Recipe is a single request definition: method, URL, headers, query
// parameters, body and auth, each field independently templated.
type Recipe struct {
	ID      RecipeID
	Name    string
	Method  string
	URL     *template.Template
	Headers []HeaderField
	Query   []QueryField
	Body    *Body
	Auth    *Auth
	// Persist controls whether a dispatched exchange for this recipe is
	// written to history by default; a caller may still override
	// persistence off for a single dispatch.
	Persist bool
}
