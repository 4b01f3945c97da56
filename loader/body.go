package loader

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/collection"
)

var bodyFields = map[string]bool{
	"json":            true,
	"form_urlencoded": true,
	"form_multipart":  true,
}

// parseBody decodes a recipe's body field. A bare scalar is a raw
// templated string; a mapping selects one of the three structured forms.
// A `json` value may itself be a nested YAML structure, which is
// re-serialized to JSON text (preserving any `{{ … }}` placeholders inside
// string leaves verbatim) and templated as a whole, the same single-byte-
// string render collection.Body already documents for BodyRaw/BodyJSON.
func parseBody(node *yaml.Node) (*collection.Body, error) {
	if node.Kind == yaml.ScalarNode {
		tpl, err := parseTemplateNode(node)
		if err != nil {
			return nil, err
		}
		return &collection.Body{Kind: collection.BodyRaw, Raw: tpl}, nil
	}

	fields, err := mappingFields(node, bodyFields)
	if err != nil {
		return nil, err
	}
	if jsonNode, ok := fields["json"]; ok {
		return parseJSONBody(jsonNode)
	}
	if formNode, ok := fields["form_urlencoded"]; ok {
		form, err := parseFormFields(formNode)
		if err != nil {
			return nil, fmt.Errorf("form_urlencoded: %w", err)
		}
		return &collection.Body{Kind: collection.BodyFormURLEncoded, Form: form}, nil
	}
	if formNode, ok := fields["form_multipart"]; ok {
		form, err := parseFormFields(formNode)
		if err != nil {
			return nil, fmt.Errorf("form_multipart: %w", err)
		}
		return &collection.Body{Kind: collection.BodyFormMultipart, Form: form}, nil
	}
	return nil, fmt.Errorf("body must be a string or one of json/form_urlencoded/form_multipart, line %d", node.Line)
}

func parseJSONBody(node *yaml.Node) (*collection.Body, error) {
	if node.Kind == yaml.ScalarNode {
		tpl, err := parseTemplateNode(node)
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return &collection.Body{Kind: collection.BodyJSON, Raw: tpl}, nil
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	text, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("json: re-encoding as JSON: %w", err)
	}
	tpl, err := parseTemplateString(string(text))
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return &collection.Body{Kind: collection.BodyJSON, Raw: tpl}, nil
}

func parseFormFields(node *yaml.Node) ([]collection.FormField, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping, line %d", node.Line)
	}
	fields := make([]collection.FormField, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, valNode := node.Content[i], node.Content[i+1]
		name, err := parseTemplateString(nameNode.Value)
		if err != nil {
			return nil, fmt.Errorf("field name %q: %w", nameNode.Value, err)
		}
		val, err := parseTemplateNode(valNode)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", nameNode.Value, err)
		}
		fields = append(fields, collection.FormField{Name: name, Value: val})
	}
	return fields, nil
}
