package collection

import "fmt"

// RecipeNode is either a Folder (a pure grouping node) or a RecipeLeaf
// (wraps a real Recipe), mirroring original_source's RecipeNode enum
// (crates/core/src/collection/recipe_tree.rs).
type RecipeNode interface {
	isRecipeNode()
	id() NodeID
	children() []RecipeNode
}

// Folder groups child nodes under a name; it carries no request of its
// own.
type Folder struct {
	ID       FolderID
	Name     string
	Children []RecipeNode
}

func (f *Folder) isRecipeNode()        {}
func (f *Folder) id() NodeID           { return f.ID }
func (f *Folder) children() []RecipeNode { return f.Children }

// RecipeLeaf wraps a Recipe as a tree node with no children.
type RecipeLeaf struct {
	*Recipe
}

func (RecipeLeaf) isRecipeNode()        {}
func (l RecipeLeaf) id() NodeID          { return l.Recipe.ID }
func (RecipeLeaf) children() []RecipeNode { return nil }

// LookupKey is the ordered path of node IDs from the tree's root down to a
// particular node (inclusive), mirroring original_source's
// RecipeLookupKey.
type LookupKey []NodeID

// Depth is the number of entries in the path, i.e. the node's ancestors
// plus the node itself.
func (k LookupKey) Depth() int { return len(k) }

// Ancestors returns every ID in the path except the final (self) entry.
func (k LookupKey) Ancestors() []NodeID {
	if len(k) == 0 {
		return nil
	}
	return k[:len(k)-1]
}

// Self returns the final entry in the path, the node's own ID.
func (k LookupKey) Self() NodeID {
	if len(k) == 0 {
		return ""
	}
	return k[len(k)-1]
}

// RecipeTree is the parsed, duplicate-ID-checked tree of folders and
// recipes belonging to one collection.
type RecipeTree struct {
	Roots     []RecipeNode
	byID      map[NodeID]RecipeNode
	keyByID   map[NodeID]LookupKey
}

// NewRecipeTree builds a tree from its root nodes, rejecting any
// duplicate ID across the whole tree (folders and recipes share one ID
// namespace), mirroring RecipeTree::new's nodes_by_id.insert evicted
// check.
func NewRecipeTree(roots []RecipeNode) (*RecipeTree, error) {
	t := &RecipeTree{
		Roots:   roots,
		byID:    make(map[NodeID]RecipeNode),
		keyByID: make(map[NodeID]LookupKey),
	}
	var walk func(nodes []RecipeNode, prefix LookupKey) error
	walk = func(nodes []RecipeNode, prefix LookupKey) error {
		for _, n := range nodes {
			id := n.id()
			if _, exists := t.byID[id]; exists {
				return fmt.Errorf("duplicate recipe/folder ID %q", id)
			}
			key := make(LookupKey, len(prefix)+1)
			copy(key, prefix)
			key[len(prefix)] = id
			t.byID[id] = n
			t.keyByID[id] = key
			if err := walk(n.children(), key); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(roots, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// TryGet returns the node with the given ID, or ok=false.
func (t *RecipeTree) TryGet(id NodeID) (RecipeNode, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Get returns the node with the given ID, panicking if absent — for call
// sites that have already validated the ID exists (e.g. iterating
// RecipeIDs()).
func (t *RecipeTree) Get(id NodeID) RecipeNode {
	n, ok := t.byID[id]
	if !ok {
		panic(fmt.Sprintf("collection: no node with ID %q", id))
	}
	return n
}

// TryGetRecipe returns the Recipe with the given ID, or ok=false if the ID
// is absent or names a Folder rather than a recipe.
func (t *RecipeTree) TryGetRecipe(id RecipeID) (*Recipe, bool) {
	n, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	leaf, ok := n.(RecipeLeaf)
	if !ok {
		return nil, false
	}
	return leaf.Recipe, true
}

// GetRecipe returns the Recipe with the given ID, or an error if absent or
// not a recipe.
func (t *RecipeTree) GetRecipe(id RecipeID) (*Recipe, error) {
	r, ok := t.TryGetRecipe(id)
	if !ok {
		return nil, fmt.Errorf("no recipe with ID %q", id)
	}
	return r, nil
}

// LookupKeyFor returns the root-to-node ID path for id.
func (t *RecipeTree) LookupKeyFor(id NodeID) (LookupKey, bool) {
	k, ok := t.keyByID[id]
	return k, ok
}

// RecipeIDs returns the IDs of every recipe (not folder) in the tree, in
// depth-first order.
func (t *RecipeTree) RecipeIDs() []RecipeID {
	var ids []RecipeID
	for _, n := range t.Iter() {
		if leaf, ok := n.(RecipeLeaf); ok {
			ids = append(ids, leaf.Recipe.ID)
		}
	}
	return ids
}

// Iter returns every node (folders and recipes) in depth-first,
// pre-order.
func (t *RecipeTree) Iter() []RecipeNode {
	var out []RecipeNode
	var walk func([]RecipeNode)
	walk = func(nodes []RecipeNode) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.children())
		}
	}
	walk(t.Roots)
	return out
}
