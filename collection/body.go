package collection

import "github.com/LucasPickering/slumber/template"

// BodyKind discriminates the shape of a recipe's request body.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyJSON
	BodyFormURLEncoded
	BodyFormMultipart
)

// FormField is one name/value pair of a form-encoded body. Both the name
// and value are templates: a dynamic field name is rare but not
// disallowed by the grammar.
type FormField struct {
	Name  *template.Template
	Value *template.Template
}

// Body is a recipe's request body. Raw and JSON bodies render to a single
// byte string (JSON additionally implies a `Content-Type:
// application/json` default); form bodies render each field independently
// and are concurrently rendered like any other field set.
type Body struct {
	Kind BodyKind
	Raw  *template.Template // BodyRaw or BodyJSON
	Form []FormField        // BodyFormURLEncoded or BodyFormMultipart
}
