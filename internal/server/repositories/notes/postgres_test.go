package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noteColumns = []string{"id", "user_id", "title", "content", "transcription", "type", "color",
	"pinned", "archived", "audio_key", "created_at", "updated_at"}

var (
	t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func ptr[T any](v T) *T { return &v }

func TestUpsert_InsertsAndReturnsRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	in := &models.Note{ID: "n1", UserID: "u1", Title: "groceries", Content: "milk", Type: models.NoteTypeText, Color: "green"}
	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+notes\b.*ON\s+CONFLICT\s+\(id\)\s+DO\s+UPDATE\s+SET.*WHERE\s+notes\.user_id\s*=\s*EXCLUDED\.user_id\s+RETURNING\s+id,`).
		WithArgs("n1", "u1", "groceries", "milk", nil, "text", "green", false, false, nil).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "u1", "groceries", "milk", nil, "text", "green", false, false, nil, t0, t0))

	got, err := repo.Upsert(context.Background(), in)
	require.NoError(t, err)

	want := &models.Note{ID: "n1", UserID: "u1", Title: "groceries", Content: "milk", Type: "text", Color: "green",
		CreatedAt: t0, UpdatedAt: t0}
	assert.Empty(t, cmp.Diff(want, got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ForeignRowIsUnauthorized(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+notes`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Upsert(context.Background(), &models.Note{ID: "n1", UserID: "intruder", Type: "text"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+notes`).WillReturnError(errors.New("db down"))

	_, err := repo.Upsert(context.Background(), &models.Note{ID: "n1", UserID: "u1", Type: "text"})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^\s*INSERT\s+INTO\s+notes\b.*ON\s+CONFLICT\s+\(id\)\s+DO\s+NOTHING\s+RETURNING\s+id,`
	in := &models.Note{ID: "n1", UserID: "u1", Title: "draft", Type: models.NoteTypeText}

	mock.ExpectQuery(q).
		WithArgs("n1", "u1", "draft", "", nil, "text", "", false, false, nil).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "u1", "draft", "", nil, "text", "", false, false, nil, t0, t0))
	got, inserted, err := repo.Insert(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "draft", got.Title)

	mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
	got, inserted, err = repo.Insert(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Nil(t, got)

	mock.ExpectQuery(q).WillReturnError(errors.New("db down"))
	_, _, err = repo.Insert(context.Background(), in)
	assert.ErrorContains(t, err, "db error: db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,.*FROM\s+notes\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "u1", "memo", "", "hello world", "voice", "", true, false, "users/u1/a.webm", t0, t1))

	got, err := repo.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, ptr("hello world"), got.Transcription)
	assert.Equal(t, ptr("users/u1/a.webm"), got.AudioKey)
	assert.True(t, got.Pinned)
	assert.Equal(t, t1, got.UpdatedAt)

	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+user_id\s+FROM\s+notes\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("n1").WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	owner, err := repo.GetOwner(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	mock.ExpectQuery(q).WithArgs("n2").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetOwner(context.Background(), "n2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(q).WithArgs("n3").WillReturnError(errors.New("db err"))
	_, err = repo.GetOwner(context.Background(), "n3")
	assert.ErrorContains(t, err, "db error")
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)SELECT\s+id,.*FROM\s+notes\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+archived\s*=\s*\$2\s+ORDER\s+BY\s+updated_at\s+DESC,\s*id$`
	mock.ExpectQuery(q).WithArgs("u1", false).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n2", "u1", "b", "", nil, "text", "", false, false, nil, t0, t1).
			AddRow("n1", "u1", "a", "", nil, "text", "", false, false, nil, t0, t0))

	got, err := repo.List(context.Background(), "u1", false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[0].ID)
	assert.Equal(t, "n1", got[1].ID)

	mock.ExpectQuery(q).WithArgs("u2", true).WillReturnRows(sqlmock.NewRows(noteColumns))
	got, err = repo.List(context.Background(), "u2", true)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	mock.ExpectQuery(q).WithArgs("u1", false).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "u1", "a", "", nil, "text", "", false, false, nil, t0, t0).
			RowError(0, errors.New("broken row")))
	_, err = repo.List(context.Background(), "u1", false)
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*UPDATE\s+notes\s+SET\s+title\s*=\s*COALESCE\(\$3,\s*title\).*WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+RETURNING\s+id,`
	patch := models.NotePatch{Title: ptr("renamed"), Pinned: ptr(true)}
	mock.ExpectQuery(q).
		WithArgs("n1", "u1", "renamed", nil, nil, nil, true, nil, nil).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "u1", "renamed", "", nil, "text", "", true, false, nil, t0, t1))

	got, err := repo.Update(context.Background(), "u1", "n1", patch)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Pinned)

	mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
	_, err = repo.Update(context.Background(), "u2", "n1", patch)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `^DELETE\s+FROM\s+notes\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("n1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "u1", "n1"))

	mock.ExpectExec(q).WithArgs("n1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2", "n1"), common.ErrorNotFound)

	mock.ExpectExec(q).WithArgs("n1", "u1").WillReturnError(errors.New("db err"))
	assert.ErrorContains(t, repo.Delete(context.Background(), "u1", "n1"), "db error")
}
