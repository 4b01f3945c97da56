// Package collection models a loaded request collection: profiles, the
// recipe tree, and the recipe/body/auth shapes used to build requests.
package collection

// NodeID is the shared identifier namespace for both folders and recipes
// in a RecipeTree: users assign their own mnemonic IDs in source (YAML map
// keys), and a folder and a recipe may never collide on the same ID,
// mirroring original_source's recipe_tree.rs RecipeId/FolderId sharing one
// evicted-on-insert map.
type NodeID string

// RecipeID identifies a single recipe.
type RecipeID = NodeID

// FolderID identifies a folder (a grouping node with no request of its
// own).
type FolderID = NodeID

// ProfileID identifies a profile.
type ProfileID string
