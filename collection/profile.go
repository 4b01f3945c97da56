package collection

import "github.com/LucasPickering/slumber/template"

// Profile is a named bundle of field templates (e.g. host, auth token)
// that recipes reference via bare identifiers in their own templates.
// Profile implements template.ProfileFields so the template package's
// evaluator can resolve `{{ field }}` against it without importing this
// package.
type Profile struct {
	ID   ProfileID
	Name string
	// Default marks this as the profile selected when a dispatch names
	// none explicitly.
	Default bool
	Data    map[string]*template.Template
}

// Field looks up a profile field's template by name.
func (p *Profile) Field(name string) (*template.Template, bool) {
	if p == nil {
		return nil, false
	}
	t, ok := p.Data[name]
	return t, ok
}
