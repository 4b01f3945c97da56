package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/template"
)

var profileFields = map[string]bool{
	"name":    true,
	"default": true,
	"data":    true,
}

// parseProfiles decodes the `profiles` mapping: ID -> profile body.
func parseProfiles(node *yaml.Node) (map[collection.ProfileID]*collection.Profile, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("profiles must be a mapping, line %d", node.Line)
	}
	profiles := make(map[collection.ProfileID]*collection.Profile, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		idNode, bodyNode := node.Content[i], node.Content[i+1]
		id := collection.ProfileID(idNode.Value)
		if _, dup := profiles[id]; dup {
			return nil, fmt.Errorf("duplicate profile ID %q, line %d", id, idNode.Line)
		}
		p, err := parseProfile(id, bodyNode)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", id, err)
		}
		profiles[id] = p
	}
	return profiles, nil
}

func parseProfile(id collection.ProfileID, node *yaml.Node) (*collection.Profile, error) {
	fields, err := mappingFields(node, profileFields)
	if err != nil {
		return nil, err
	}

	p := &collection.Profile{ID: id, Name: string(id), Data: map[string]*template.Template{}}

	if nameNode, ok := fields["name"]; ok {
		if nameNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("name must be a string, line %d", nameNode.Line)
		}
		p.Name = nameNode.Value
	}

	if defaultNode, ok := fields["default"]; ok {
		var b bool
		if err := defaultNode.Decode(&b); err != nil {
			return nil, fmt.Errorf("default must be a boolean, line %d", defaultNode.Line)
		}
		p.Default = b
	}

	if dataNode, ok := fields["data"]; ok {
		if dataNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("data must be a mapping, line %d", dataNode.Line)
		}
		for i := 0; i+1 < len(dataNode.Content); i += 2 {
			keyNode, valNode := dataNode.Content[i], dataNode.Content[i+1]
			tpl, err := parseTemplateNode(valNode)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", keyNode.Value, err)
			}
			p.Data[keyNode.Value] = tpl
		}
	}

	return p, nil
}
