package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/template"
)

// parseTemplateNode parses a scalar YAML node's string value as a template.
// Every templated field in a collection document is a plain YAML string
// that the loader parses eagerly at load time: strings that look like
// `{{ … }}` are parsed as templates as soon as the collection loads.
// Collection/Recipe/Profile hold the parsed form, never source text, so
// rendering never re-parses.
func parseTemplateNode(node *yaml.Node) (*template.Template, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a string, line %d", node.Line)
	}
	tpl, err := template.Parse(node.Value)
	if err != nil {
		return nil, fmt.Errorf("parsing template %q (line %d): %w", node.Value, node.Line, err)
	}
	return tpl, nil
}

func parseTemplateString(s string) (*template.Template, error) {
	return template.Parse(s)
}
