package history

import (
	"context"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Open canonicalizes path and upserts a row in the collections table,
// returning a CollectionDatabase handle scoped to it. Two calls against
// the same file after symlink resolution return handles sharing the same
// underlying rows. A path that is not valid UTF-8 is rejected with an
// error.
func (s *Store) Open(ctx context.Context, path string) (*CollectionDatabase, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		// The collection file may not exist yet (e.g. a fresh in-memory
		// fixture); fall back to the cleaned, non-symlink-resolved path.
		canonical = filepath.Clean(path)
	}
	if !utf8.ValidString(canonical) {
		return nil, fmt.Errorf("collection path %q is not valid UTF-8", canonical)
	}

	var existing string
	row := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE path = ?`, canonical)
	if err := row.Scan(&existing); err == nil {
		id, err := uuid.Parse(existing)
		if err != nil {
			return nil, fmt.Errorf("parsing stored collection id: %w", err)
		}
		return &CollectionDatabase{store: s, id: id}, nil
	}

	id := uuid.New()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO collections (id, path) VALUES (?, ?)`, id.String(), canonical); err != nil {
		return nil, fmt.Errorf("inserting collection %q: %w", canonical, err)
	}
	return &CollectionDatabase{store: s, id: id}, nil
}

// DeleteCollection removes c's row from the collections table and, via ON
// DELETE CASCADE, every request and ui_state row scoped to it. c must not
// be used afterward.
func (c *CollectionDatabase) DeleteCollection(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, c.id.String()); err != nil {
		return fmt.Errorf("deleting collection %s: %w", c.id, err)
	}
	return nil
}

// MergeCollections retargets every row owned by source onto dest, then
// drops source. Used when the caller detects two database entries
// referring to the same logical collection (e.g. after a path rename that
// EvalSymlinks couldn't see through).
func (s *Store) MergeCollections(ctx context.Context, source, dest uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE requests_v2 SET collection_id = ? WHERE collection_id = ?`,
		dest.String(), source.String()); err != nil {
		return fmt.Errorf("retargeting requests: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ui_state_v2 SET collection_id = ? WHERE collection_id = ?`,
		dest.String(), source.String()); err != nil {
		return fmt.Errorf("retargeting ui state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, source.String()); err != nil {
		return fmt.Errorf("dropping source collection: %w", err)
	}
	return tx.Commit()
}
