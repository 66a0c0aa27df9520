package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/deepnote/internal/client/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)
	return db
}

func TestSetGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeyAppState)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, KeyAppState, []byte(`{"v":1}`)))
	require.NoError(t, r.Set(ctx, KeyAppState, []byte(`{"v":2}`)))

	v, err = r.Get(ctx, KeyAppState)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(v))
}

func TestSet_NilValueStoredAsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", nil))
	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}

func TestDeleteAndPrefix(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyUsername, []byte("alice")))
	require.NoError(t, r.Set(ctx, KeyUserID, []byte("u1")))
	require.NoError(t, r.Set(ctx, KeyAppState, []byte("{}")))

	auth, err := r.List(ctx, AuthPrefix)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{KeyUsername: []byte("alice"), KeyUserID: []byte("u1")}, auth)

	require.NoError(t, r.DeletePrefix(ctx, AuthPrefix))
	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{KeyAppState: []byte("{}")}, all)

	require.NoError(t, r.Delete(ctx, KeyAppState))
	require.NoError(t, r.Delete(ctx, KeyAppState))
	all, err = r.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get metadata[k]")
	assert.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	assert.ErrorContains(t, r.DeletePrefix(ctx, "a."), "failed to delete metadata[a.*]")
	_, err = r.List(ctx, "")
	assert.ErrorContains(t, err, "failed to list metadata")
}
