// Package function implements Slumber's built-in template function
// library (spec C5): file, env, command, prompt, select, response,
// response_header, profile, jsonpath, trim, concat, sensitive. Built-ins
// are registered by name at package init into one function map.
package function

import "github.com/LucasPickering/slumber/template"

var registry = template.FuncMap{}

// register adds a builtin to the package registry. Called only from
// package-level init functions; panics on a duplicate name since that can
// only indicate a programming error in this package.
func register(spec template.FuncSpec) {
	if _, exists := registry[spec.Name]; exists {
		panic("function: builtin already registered: " + spec.Name)
	}
	registry[spec.Name] = spec
}

// BuiltIns returns the full built-in function table. Callers (the engine
// package) get a fresh copy so nothing downstream can mutate the shared
// registry.
func BuiltIns() template.FuncMap {
	out := make(template.FuncMap, len(registry))
	for k, v := range registry {
		out[k] = v
	}
	return out
}
