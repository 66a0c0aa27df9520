package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Create(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO caches (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, r.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to create cache %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM caches WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up cache %s: %w", name, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM caches ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *SQLiteRepository) Drop(ctx context.Context, name string) (bool, error) {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to delete entries of cache %s: %w", name, err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Put upserts e into an existing cache. When the cache row is gone, for
// instance dropped by an activation that raced a background write, nothing is
// stored and the error wraps common.ErrorNotFound.
func (r *SQLiteRepository) Put(ctx context.Context, e *models.CachedResponse) error {
	header := e.Header
	if header == nil {
		header = http.Header{}
	}
	headers, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = r.now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_name, request_key, method, url, status, headers, body, stored_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM caches WHERE name = ?)
		ON CONFLICT(cache_name, request_key) DO UPDATE SET
			method = excluded.method,
			url = excluded.url,
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at
	`, e.CacheName, e.Key, e.Method, e.URL, e.Status, string(headers), e.Body, storedAt.UnixNano(), e.CacheName)
	if err != nil {
		return fmt.Errorf("failed to store %s in cache %s: %w", e.Key, e.CacheName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cache %s: %w", e.CacheName, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, cacheName, key string) (*models.CachedResponse, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT method, url, status, headers, body, stored_at
		FROM cache_entries WHERE cache_name = ? AND request_key = ?
	`, cacheName, key)

	e := &models.CachedResponse{CacheName: cacheName, Key: key}
	var headers string
	var storedAt int64
	if err := row.Scan(&e.Method, &e.URL, &e.Status, &headers, &e.Body, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to read %s from cache %s: %w", key, cacheName, err)
	}
	if err := json.Unmarshal([]byte(headers), &e.Header); err != nil {
		return nil, fmt.Errorf("failed to decode headers of %s: %w", key, err)
	}
	e.StoredAt = time.Unix(0, storedAt)
	return e, nil
}

func (r *SQLiteRepository) Keys(ctx context.Context, cacheName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT request_key FROM cache_entries WHERE cache_name = ? ORDER BY request_key`, cacheName)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of cache %s: %w", cacheName, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
