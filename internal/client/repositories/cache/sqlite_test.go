package cache

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/migrations"
	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)
	return db
}

func entry(cache, key, body string) *models.CachedResponse {
	return &models.CachedResponse{
		CacheName: cache,
		Key:       key,
		Method:    http.MethodGet,
		URL:       "http://localhost:8080" + key[len("GET "):],
		Status:    http.StatusOK,
		Header:    http.Header{"Content-Type": {"text/html"}},
		Body:      []byte(body),
		StoredAt:  time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateExistsNames(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	created, err := r.Create(ctx, "deepnote-v1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.Create(ctx, "deepnote-v1")
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := r.Exists(ctx, "deepnote-v1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.Exists(ctx, "deepnote-v0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Create(ctx, "deepnote-v2")
	require.NoError(t, err)
	names, err := r.Names(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deepnote-v1", "deepnote-v2"}, names)
}

func TestPutGet_Overwrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	_, err := r.Create(ctx, "v1")
	require.NoError(t, err)

	require.NoError(t, r.Put(ctx, entry("v1", "GET /index.html", "old")))
	require.NoError(t, r.Put(ctx, entry("v1", "GET /index.html", "new")))

	got, err := r.Get(ctx, "v1", "GET /index.html")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got.Body))
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "text/html", got.Header.Get("Content-Type"))
	assert.True(t, got.StoredAt.Equal(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)))

	keys, err := r.Keys(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /index.html"}, keys)
}

func TestGet_Miss(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "v1", "GET /nothing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDrop(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, name := range []string{"old", "cur"} {
		_, err := r.Create(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, r.Put(ctx, entry("old", "GET /", "a")))
	require.NoError(t, r.Put(ctx, entry("cur", "GET /", "b")))

	existed, err := r.Drop(ctx, "old")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = r.Drop(ctx, "old")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = r.Get(ctx, "old", "GET /")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	got, err := r.Get(ctx, "cur", "GET /")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got.Body))
}

func TestStore_PutAllIsAtomic(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	ctx := context.Background()
	_, err := s.Open(ctx, "v1")
	require.NoError(t, err)

	bad := entry("v1", "GET /b", "b")
	_, err = db.Exec(`CREATE TRIGGER reject_b BEFORE INSERT ON cache_entries
		WHEN NEW.request_key = 'GET /b' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = s.PutAll(ctx, []*models.CachedResponse{entry("v1", "GET /a", "a"), bad})
	require.Error(t, err)

	keys, err := s.Keys(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_OpenDeleteMatch(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()

	created, err := s.Open(ctx, "v2")
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, s.Put(ctx, entry("v2", "GET /sw.js", "js")))
	got, err := s.Match(ctx, "v2", "GET /sw.js")
	require.NoError(t, err)
	assert.Equal(t, "js", string(got.Body))

	existed, err := s.Delete(ctx, "v2")
	require.NoError(t, err)
	assert.True(t, existed)
	_, err = s.Match(ctx, "v2", "GET /sw.js")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPut_MissingCacheIsNotRecreated(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	err := r.Put(ctx, entry("v0", "GET /", "late"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	names, err := r.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	_, err = r.Get(ctx, "v0", "GET /")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_PutAfterDeleteIsDropped(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()

	for _, name := range []string{"v0", "v1"} {
		_, err := s.Open(ctx, name)
		require.NoError(t, err)
	}
	_, err := s.Delete(ctx, "v0")
	require.NoError(t, err)

	err = s.Put(ctx, entry("v0", "GET /index.html", "stale"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, names)
}
