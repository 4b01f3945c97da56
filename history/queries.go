package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LucasPickering/slumber/exchange"
)

const timeLayout = time.RFC3339Nano

// InsertExchange records ex against c's collection. It implements
// exchange.Recorder.
func (c *CollectionDatabase) InsertExchange(ctx context.Context, ex *exchange.Exchange) error {
	reqHeaders, err := compressBody(encodeHeaders(ex.Request.Headers))
	if err != nil {
		return fmt.Errorf("compressing request headers: %w", err)
	}
	respHeaders, err := compressBody(encodeHeaders(ex.Response.Headers))
	if err != nil {
		return fmt.Errorf("compressing response headers: %w", err)
	}
	reqBody, err := compressBody(ex.Request.Body)
	if err != nil {
		return fmt.Errorf("compressing request body: %w", err)
	}
	respBody, err := compressBody(ex.Response.Body)
	if err != nil {
		return fmt.Errorf("compressing response body: %w", err)
	}

	var profileID sql.NullString
	if ex.Request.ProfileID != nil {
		profileID = sql.NullString{String: string(*ex.Request.ProfileID), Valid: true}
	}

	_, err = c.store.db.ExecContext(ctx, `INSERT INTO requests_v2 (id, collection_id, profile_id, recipe_id,
		start_time, end_time, method, url, request_headers, request_body, status_code, response_headers, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID.String(), c.id.String(), profileID, string(ex.Request.RecipeID),
		ex.StartTime.Format(timeLayout), ex.EndTime.Format(timeLayout), ex.Request.Method, ex.Request.URL,
		reqHeaders, reqBody, ex.Response.StatusCode, respHeaders, respBody)
	if err != nil {
		return fmt.Errorf("inserting exchange %s: %w", ex.ID, err)
	}
	return nil
}

// GetLatestRequest returns the most recent exchange dispatched for
// recipeID under filter, or (nil, nil) if there is none.
func (c *CollectionDatabase) GetLatestRequest(ctx context.Context, filter exchange.ProfileFilter, recipeID exchange.RecipeID) (*exchange.Exchange, error) {
	query, args := c.selectQuery(filter, recipeID, `ORDER BY start_time DESC LIMIT 1`)
	row := c.store.db.QueryRowContext(ctx, query, args...)
	ex, err := scanExchange(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest request for recipe %s: %w", recipeID, err)
	}
	return ex, nil
}

// GetRecipeRequests returns every exchange dispatched for recipeID under
// filter, newest first.
func (c *CollectionDatabase) GetRecipeRequests(ctx context.Context, filter exchange.ProfileFilter, recipeID exchange.RecipeID) ([]*exchange.Exchange, error) {
	query, args := c.selectQuery(filter, recipeID, `ORDER BY start_time DESC`)
	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests for recipe %s: %w", recipeID, err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// GetAllRequests returns every exchange recorded under c's collection,
// newest first, for list views.
func (c *CollectionDatabase) GetAllRequests(ctx context.Context) ([]*exchange.Exchange, error) {
	rows, err := c.store.db.QueryContext(ctx, selectColumns+` FROM requests_v2 WHERE collection_id = ? ORDER BY start_time DESC`, c.id.String())
	if err != nil {
		return nil, fmt.Errorf("listing all requests: %w", err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// DeleteRequest removes a single exchange by ID.
func (c *CollectionDatabase) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM requests_v2 WHERE id = ? AND collection_id = ?`, id.String(), c.id.String()); err != nil {
		return fmt.Errorf("deleting request %s: %w", id, err)
	}
	return nil
}

// DeleteRecipeRequests removes every exchange dispatched for recipeID
// under filter.
func (c *CollectionDatabase) DeleteRecipeRequests(ctx context.Context, filter exchange.ProfileFilter, recipeID exchange.RecipeID) error {
	query, args := c.deleteQuery(filter, recipeID)
	if _, err := c.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting requests for recipe %s: %w", recipeID, err)
	}
	return nil
}

// GetUI reads one opaque UI-state scratch value. keyType/key are caller
// namespacing; the value itself is never interpreted here.
func (c *CollectionDatabase) GetUI(ctx context.Context, keyType, key string) (string, bool, error) {
	var value string
	row := c.store.db.QueryRowContext(ctx, `SELECT value FROM ui_state_v2 WHERE collection_id = ? AND key_type = ? AND key = ?`,
		c.id.String(), keyType, key)
	if err := row.Scan(&value); err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("getting ui state %s/%s: %w", keyType, key, err)
	}
	return value, true, nil
}

// SetUI upserts one opaque UI-state scratch value.
func (c *CollectionDatabase) SetUI(ctx context.Context, keyType, key, value string) error {
	_, err := c.store.db.ExecContext(ctx, `INSERT INTO ui_state_v2 (collection_id, key_type, key, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection_id, key_type, key) DO UPDATE SET value = excluded.value`,
		c.id.String(), keyType, key, value)
	if err != nil {
		return fmt.Errorf("setting ui state %s/%s: %w", keyType, key, err)
	}
	return nil
}

const selectColumns = `SELECT id, profile_id, recipe_id, start_time, end_time, method, url,
	request_headers, request_body, status_code, response_headers, response_body`

func (c *CollectionDatabase) selectQuery(filter exchange.ProfileFilter, recipeID exchange.RecipeID, suffix string) (string, []any) {
	query := selectColumns + ` FROM requests_v2 WHERE collection_id = ? AND recipe_id = ?`
	args := []any{c.id.String(), string(recipeID)}
	query, args = appendProfileFilter(query, args, filter)
	return query + " " + suffix, args
}

func (c *CollectionDatabase) deleteQuery(filter exchange.ProfileFilter, recipeID exchange.RecipeID) (string, []any) {
	query := `DELETE FROM requests_v2 WHERE collection_id = ? AND recipe_id = ?`
	args := []any{c.id.String(), string(recipeID)}
	return appendProfileFilter(query, args, filter)
}

func appendProfileFilter(query string, args []any, filter exchange.ProfileFilter) (string, []any) {
	switch filter.Kind {
	case exchange.ProfileFilterNone:
		return query + " AND profile_id IS NULL", args
	case exchange.ProfileFilterSome:
		return query + " AND profile_id = ?", append(args, string(filter.ID))
	default: // ProfileFilterAll
		return query, args
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExchange(row rowScanner) (*exchange.Exchange, error) {
	var (
		id, recipeID, startTime, endTime, method, url string
		profileID                                      sql.NullString
		reqHeaders, respHeaders, reqBody, respBody     []byte
		statusCode                                     int
	)
	if err := row.Scan(&id, &profileID, &recipeID, &startTime, &endTime, &method, &url,
		&reqHeaders, &reqBody, &statusCode, &respHeaders, &respBody); err != nil {
		return nil, err
	}

	exID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing exchange id %q: %w", id, err)
	}
	start, err := time.Parse(timeLayout, startTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time %q: %w", startTime, err)
	}
	end, err := time.Parse(timeLayout, endTime)
	if err != nil {
		return nil, fmt.Errorf("parsing end_time %q: %w", endTime, err)
	}

	decompressedReqHeaders, err := decompressBody(reqHeaders)
	if err != nil {
		return nil, fmt.Errorf("decompressing request headers: %w", err)
	}
	reqHeaderMap, err := decodeHeaders(decompressedReqHeaders)
	if err != nil {
		return nil, fmt.Errorf("decoding request headers: %w", err)
	}
	decompressedRespHeaders, err := decompressBody(respHeaders)
	if err != nil {
		return nil, fmt.Errorf("decompressing response headers: %w", err)
	}
	respHeaderMap, err := decodeHeaders(decompressedRespHeaders)
	if err != nil {
		return nil, fmt.Errorf("decoding response headers: %w", err)
	}
	decompressedReqBody, err := decompressBody(reqBody)
	if err != nil {
		return nil, fmt.Errorf("decompressing request body: %w", err)
	}
	decompressedRespBody, err := decompressBody(respBody)
	if err != nil {
		return nil, fmt.Errorf("decompressing response body: %w", err)
	}

	var pid *exchange.ProfileID
	if profileID.Valid {
		p := exchange.ProfileID(profileID.String)
		pid = &p
	}

	return &exchange.Exchange{
		ID: exID,
		Request: &exchange.Request{
			ID:        exID,
			ProfileID: pid,
			RecipeID:  exchange.RecipeID(recipeID),
			Method:    method,
			URL:       url,
			Headers:   reqHeaderMap,
			Body:      decompressedReqBody,
		},
		Response: &exchange.Response{
			StatusCode: statusCode,
			Headers:    respHeaderMap,
			Body:       decompressedRespBody,
		},
		StartTime: start,
		EndTime:   end,
	}, nil
}

func scanExchanges(rows *sql.Rows) ([]*exchange.Exchange, error) {
	var out []*exchange.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
