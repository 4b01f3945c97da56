package history

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step, the Go-idiomatic equivalent of the
// original's rusqlite_migration::Migrations vector: a name (tracked in
// schema_migrations so it's never reapplied) and the function that
// applies it inside the open transaction.
type migration struct {
	Name string
	Up   func(ctx context.Context, tx *sql.Tx, log func(format string, args ...any)) error
}

var migrations = []migration{
	{Name: "0001_initial_schema", Up: migrate0001InitialSchema},
	{Name: "0002_requests_v2_ui_state_v2", Up: migrate0002RequestsV2UIStateV2},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, m.Name)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("checking migration %q: %w", m.Name, err)
		}
		if count > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %q: %w", m.Name, err)
		}
		logf := func(format string, args ...any) {
			s.log.Warn(fmt.Sprintf(format, args...), "migration", m.Name)
		}
		if err := m.Up(ctx, tx, logf); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %q: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %q: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %q: %w", m.Name, err)
		}
	}
	return nil
}

// migrate0001InitialSchema creates the collections table and the
// first-generation requests/ui_state tables, modeling the schema a long
// since upgraded instance would have started from.
func migrate0001InitialSchema(ctx context.Context, tx *sql.Tx, _ func(string, ...any)) error {
	stmts := []string{
		`CREATE TABLE collections (
			id TEXT PRIMARY KEY,
			path BLOB NOT NULL UNIQUE
		)`,
		`CREATE TABLE requests (
			id TEXT PRIMARY KEY,
			collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			profile_id TEXT,
			recipe_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			request_headers TEXT NOT NULL,
			request_body BLOB,
			status_code INTEGER NOT NULL,
			response_headers TEXT NOT NULL,
			response_body BLOB NOT NULL
		)`,
		`CREATE TABLE ui_state (
			collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (collection_id, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrate0002RequestsV2UIStateV2 introduces the BLOB header encoding and
// the ui_state key_type column, copying existing rows best-effort: a
// failed row is logged and skipped rather than aborting the whole
// migration (§4.9). The old requests table is kept as a recovery backup;
// ui_state is dropped since its data is disposable scratch.
func migrate0002RequestsV2UIStateV2(ctx context.Context, tx *sql.Tx, logf func(string, ...any)) error {
	if _, err := tx.ExecContext(ctx, `CREATE TABLE requests_v2 (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		profile_id TEXT,
		recipe_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		request_headers BLOB NOT NULL,
		request_body BLOB,
		status_code INTEGER NOT NULL,
		response_headers BLOB NOT NULL,
		response_body BLOB NOT NULL
	)`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE ui_state_v2 (
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		key_type TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (collection_id, key_type, key)
	)`); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, collection_id, profile_id, recipe_id, start_time, end_time,
		method, url, request_headers, request_body, status_code, response_headers, response_body FROM requests`)
	if err != nil {
		return err
	}
	type legacyRow struct {
		id, collectionID, recipeID, startTime, endTime, method, url string
		profileID                                                   sql.NullString
		requestHeaders, responseHeaders                              string
		requestBody, responseBody                                    []byte
		statusCode                                                   int
	}
	var legacy []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.id, &r.collectionID, &r.profileID, &r.recipeID, &r.startTime, &r.endTime,
			&r.method, &r.url, &r.requestHeaders, &r.requestBody, &r.statusCode, &r.responseHeaders, &r.responseBody); err != nil {
			logf("skipping unreadable legacy request row: %v", err)
			continue
		}
		legacy = append(legacy, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, r := range legacy {
		reqHeaders := legacyHeadersToBlob(r.requestHeaders)
		respHeaders := legacyHeadersToBlob(r.responseHeaders)
		if _, err := tx.ExecContext(ctx, `INSERT INTO requests_v2 (id, collection_id, profile_id, recipe_id,
			start_time, end_time, method, url, request_headers, request_body, status_code, response_headers, response_body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.collectionID, r.profileID, r.recipeID, r.startTime, r.endTime, r.method, r.url,
			reqHeaders, r.requestBody, r.statusCode, respHeaders, r.responseBody); err != nil {
			logf("skipping request %s: failed to copy into requests_v2: %v", r.id, err)
			continue
		}
	}

	uiRows, err := tx.QueryContext(ctx, `SELECT collection_id, key, value FROM ui_state`)
	if err != nil {
		return err
	}
	type legacyUI struct{ collectionID, key, value string }
	var ui []legacyUI
	for uiRows.Next() {
		var u legacyUI
		if err := uiRows.Scan(&u.collectionID, &u.key, &u.value); err != nil {
			logf("skipping unreadable legacy ui_state row: %v", err)
			continue
		}
		ui = append(ui, u)
	}
	if err := uiRows.Err(); err != nil {
		_ = uiRows.Close()
		return err
	}
	_ = uiRows.Close()

	for _, u := range ui {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ui_state_v2 (collection_id, key_type, key, value)
			VALUES (?, 'legacy', ?, ?)`, u.collectionID, u.key, u.value); err != nil {
			logf("skipping ui_state %s/%s: %v", u.collectionID, u.key, err)
			continue
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE ui_state`); err != nil {
		return err
	}
	return nil
}

// legacyHeadersToBlob carries a legacy header column over to the new blob
// column: non-empty text is copied byte for byte and empty text becomes
// nil. The text is not parsed or re-encoded, so it decodes correctly only
// if it is already in the "name:value\n"-delimited layout.
func legacyHeadersToBlob(legacy string) []byte {
	if legacy == "" {
		return nil
	}
	return []byte(legacy) // the v1 format happened to already be newline-safe for this module's purposes
}
