package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
	"github.com/dmitrijs2005/deepnote/internal/server/config"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/notes"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

const (
	alice = "aaaaaaaa-0000-4000-8000-000000000001"
	bob   = "bbbbbbbb-0000-4000-8000-000000000002"
	note1 = "11111111-1111-4111-8111-111111111111"
	note2 = "22222222-2222-4222-8222-222222222222"
)

func ptr[T any](v T) *T { return &v }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// expectTx registers one transaction that ends in a commit or a rollback.
func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "deepnote-audio",
		AudioURLValidityDuration:     10 * time.Minute,
	}
}

// ---- users ----

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "42"
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

// ---- refresh tokens ----

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error

	created []string
	deleted []string
	purged  time.Time
}

func (f *fakeRefreshRepo) Create(_ context.Context, _ string, token string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.purged = now
	return 2, nil
}

// ---- notes ----

// memNotes mirrors the owner restrictions of the PostgreSQL repository.
type memNotes struct {
	mu      sync.Mutex
	rows    map[string]*models.Note
	clock   time.Time
	failGet error
}

func newMemNotes(seed ...*models.Note) *memNotes {
	m := &memNotes{rows: map[string]*models.Note{}, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, n := range seed {
		c := *n
		m.rows[n.ID] = &c
	}
	return m
}

func (m *memNotes) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memNotes) row(id string) *models.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.rows[id]; ok {
		c := *n
		return &c
	}
	return nil
}

func (m *memNotes) Upsert(_ context.Context, n *models.Note) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	if cur, ok := m.rows[n.ID]; ok {
		if cur.UserID != n.UserID {
			return nil, common.ErrorUnauthorized
		}
		c := *n
		c.CreatedAt, c.UpdatedAt = cur.CreatedAt, now
		m.rows[n.ID] = &c
		out := c
		return &out, nil
	}
	c := *n
	c.CreatedAt, c.UpdatedAt = now, now
	m.rows[n.ID] = &c
	out := c
	return &out, nil
}

func (m *memNotes) Insert(_ context.Context, n *models.Note) (*models.Note, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[n.ID]; ok {
		return nil, false, nil
	}
	now := m.tick()
	c := *n
	c.CreatedAt, c.UpdatedAt = now, now
	m.rows[n.ID] = &c
	out := c
	return &out, true, nil
}

func (m *memNotes) Get(_ context.Context, id string) (*models.Note, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	if n := m.row(id); n != nil {
		return n, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memNotes) GetOwner(_ context.Context, id string) (string, error) {
	if m.failGet != nil {
		return "", m.failGet
	}
	if n := m.row(id); n != nil {
		return n.UserID, nil
	}
	return "", common.ErrorNotFound
}

func (m *memNotes) List(_ context.Context, userID string, archived bool) ([]*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Note, 0)
	for _, n := range m.rows {
		if n.UserID == userID && n.Archived == archived {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memNotes) Update(_ context.Context, userID, id string, p models.NotePatch) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Transcription != nil {
		n.Transcription = p.Transcription
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Archived != nil {
		n.Archived = *p.Archived
	}
	if p.AudioKey != nil {
		n.AudioKey = p.AudioKey
	}
	n.UpdatedAt = m.tick()
	c := *n
	return &c, nil
}

func (m *memNotes) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

// ---- manager ----

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	n *memNotes
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Notes(dbx.DBTX) notes.Repository                 { return m.n }
