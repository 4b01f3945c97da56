// Package loader parses a collection's YAML source file into a
// collection.Collection, reading it through an afero.Fs so tests (and
// embedders) can substitute an in-memory filesystem without touching disk.
package loader

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/collection"
)

// topLevelFields are the only non-dot-prefixed keys a collection document
// may declare; unknown fields are rejected except those beginning with a
// dot.
var topLevelFields = map[string]bool{
	"profiles": true,
	"recipes":  true,
	"chains":   true,
}

// Load reads and parses the collection file at path on fs.
func Load(fs afero.Fs, path string) (*collection.Collection, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading collection file %q: %w", path, err)
	}
	return Parse(raw, collection.CollectionID(path))
}

// Parse parses raw YAML bytes into a Collection with the given ID (normally
// the source file's canonical path).
func Parse(raw []byte, id collection.CollectionID) (*collection.Collection, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing collection YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return &collection.Collection{ID: id, Profiles: map[collection.ProfileID]*collection.Profile{}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("collection document must be a mapping, line %d", root.Line)
	}

	fields, err := mappingFields(root, topLevelFields)
	if err != nil {
		return nil, err
	}

	profiles := map[collection.ProfileID]*collection.Profile{}
	if node, ok := fields["profiles"]; ok {
		profiles, err = parseProfiles(node)
		if err != nil {
			return nil, fmt.Errorf("parsing profiles: %w", err)
		}
	}

	var roots []collection.RecipeNode
	if node, ok := fields["recipes"]; ok {
		roots, err = parseRecipeNodes(node)
		if err != nil {
			return nil, fmt.Errorf("parsing recipes: %w", err)
		}
	}
	tree, err := collection.NewRecipeTree(roots)
	if err != nil {
		return nil, fmt.Errorf("building recipe tree: %w", err)
	}

	// chains is accepted for backward compatibility but not otherwise
	// consulted: the core's chaining mechanism is the C10 trigger policy
	// (response(...) calls), not the legacy standalone chain document.
	if node, ok := fields["chains"]; ok {
		if err := rejectUnknownChainFields(node); err != nil {
			return nil, fmt.Errorf("parsing chains: %w", err)
		}
	}

	return &collection.Collection{ID: id, Profiles: profiles, Tree: tree}, nil
}

// mappingFields splits a mapping node's key/value pairs into a lookup table,
// rejecting any key that is neither in allowed nor dot-prefixed.
func mappingFields(node *yaml.Node, allowed map[string]bool) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, line %d", node.Line)
	}
	out := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		name := key.Value
		if !allowed[name] && (len(name) == 0 || name[0] != '.') {
			return nil, fmt.Errorf("unexpected field %q, line %d", name, key.Line)
		}
		if allowed[name] {
			out[name] = val
		}
	}
	return out, nil
}

// rejectUnknownChainFields checks only that the legacy chains value is a
// mapping; chain entries and their fields are not inspected, since chains
// are accepted but unused.
func rejectUnknownChainFields(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("chains must be a mapping, line %d", node.Line)
	}
	return nil
}
