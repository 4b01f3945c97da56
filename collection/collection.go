package collection

import "fmt"

// CollectionID is the user-facing name for a loaded collection (typically
// derived from its source file path), distinct from the UUID the history
// store assigns to its internal collections row.
type CollectionID string

// Collection is a fully parsed request collection: its profiles and its
// recipe tree.
type Collection struct {
	ID       CollectionID
	Profiles map[ProfileID]*Profile
	Tree     *RecipeTree
}

// Profile looks up a profile by ID, or ok=false if absent.
func (c *Collection) Profile(id ProfileID) (*Profile, bool) {
	p, ok := c.Profiles[id]
	return p, ok
}

// DefaultProfile returns the profile declared `default: true` in the
// collection, if any; otherwise its sole profile if there is exactly one,
// as a convenience for single-profile collections. Supports dispatches
// that don't name a profile explicitly (§4.9).
func (c *Collection) DefaultProfile() (*Profile, bool) {
	for _, p := range c.Profiles {
		if p.Default {
			return p, true
		}
	}
	if len(c.Profiles) != 1 {
		return nil, false
	}
	for _, p := range c.Profiles {
		return p, true
	}
	return nil, false
}

// Recipe looks up a recipe by ID.
func (c *Collection) Recipe(id RecipeID) (*Recipe, error) {
	if c.Tree == nil {
		return nil, fmt.Errorf("collection has no recipes")
	}
	return c.Tree.GetRecipe(id)
}
