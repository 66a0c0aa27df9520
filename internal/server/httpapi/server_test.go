package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeAuth struct {
	tokens map[string]string
	err    error
}

func (f *fakeAuth) Authenticate(token string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return "", common.ErrInvalidToken
}

type fakeNotes struct {
	list    []*models.Note
	listErr error

	gotUser     string
	gotArchived bool
	gotPayload  models.SyncTaskPayload

	syncOut *models.Note
	syncErr error
	calls   int
}

func (f *fakeNotes) List(_ context.Context, userID string, archived bool) ([]*models.Note, error) {
	f.gotUser, f.gotArchived = userID, archived
	return f.list, f.listErr
}

func (f *fakeNotes) ApplySync(_ context.Context, userID string, p models.SyncTaskPayload) (*models.Note, error) {
	f.calls++
	f.gotUser, f.gotPayload = userID, p
	return f.syncOut, f.syncErr
}

// ---- helpers ----

func newTestServer(n *fakeNotes, rps float64, burst int) *Server {
	a := &fakeAuth{tokens: map[string]string{"tok-alice": "alice", "tok-bob": "bob"}}
	return NewServer("127.0.0.1:0", logging.Nop(), a, n, rps, burst)
}

func do(t *testing.T, s *Server, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) HTTPError {
	t.Helper()
	var e HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

// ---- auth ----

func TestAPI_RequiresBearer(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)

	rec := do(t, s, http.MethodGet, common.NotesEndpointPath, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing token", decodeError(t, rec).Message)

	rec = do(t, s, http.MethodPost, common.SyncEndpointPath, "forged", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, rec).Status)
}

func TestAPI_ExpiredTokenMessage(t *testing.T) {
	s := NewServer("", logging.Nop(), &fakeAuth{err: common.ErrTokenExpired}, &fakeNotes{}, 0, 0)

	rec := do(t, s, http.MethodGet, common.NotesEndpointPath, "old", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrTokenExpired.Error(), decodeError(t, rec).Message)
}

// ---- notes ----

func TestListNotes(t *testing.T) {
	n := &fakeNotes{list: []*models.Note{
		{ID: "n1", UserID: "alice", Title: "a", Type: "text", UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	s := newTestServer(n, 0, 0)

	rec := do(t, s, http.MethodGet, common.NotesEndpointPath, "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []rpc.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].ID)
	assert.Equal(t, "alice", n.gotUser)
	assert.False(t, n.gotArchived)

	rec = do(t, s, http.MethodGet, common.NotesEndpointPath+"?archived=true", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, n.gotArchived)
}

func TestListNotes_EmptyIsJSONArray(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)
	rec := do(t, s, http.MethodGet, common.NotesEndpointPath, "tok-bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListNotes_Errors(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)
	rec := do(t, s, http.MethodGet, common.NotesEndpointPath+"?archived=maybe", "tok-bob", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s = newTestServer(&fakeNotes{listErr: errors.New("db down")}, 0, 0)
	rec = do(t, s, http.MethodGet, common.NotesEndpointPath, "tok-bob", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Message)
}

// ---- sync ----

func TestPostSync_Create(t *testing.T) {
	n := &fakeNotes{syncOut: &models.Note{ID: "11111111-1111-4111-8111-111111111111", UserID: "alice", Title: "offline", Type: "text"}}
	s := newTestServer(n, 0, 0)

	body := `{"op":"create","note_id":"11111111-1111-4111-8111-111111111111","note":{"title":"offline","type":"text"}}`
	rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "alice", n.gotUser)
	assert.Equal(t, models.SyncOpCreate, n.gotPayload.Op)
	require.NotNil(t, n.gotPayload.Note)
	assert.Equal(t, "offline", n.gotPayload.Note.Title)

	var res rpc.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, rpc.OpCreate, res.Op)
	require.NotNil(t, res.Note)
	assert.Equal(t, "offline", res.Note.Title)
}

func TestPostSync_DeleteHasNoNote(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)
	rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", `{"op":"delete","note_id":"n"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"op":"delete"}`, rec.Body.String())
}

func TestPostSync_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad op", common.ErrValidation), http.StatusBadRequest},
		{common.ErrorUnauthorized, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s := newTestServer(&fakeNotes{syncErr: tc.err}, 0, 0)
		rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", `{"op":"update","note_id":"n"}`)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		assert.Equal(t, tc.want, decodeError(t, rec).Status)
	}
}

func TestPostSync_BadBody(t *testing.T) {
	n := &fakeNotes{}
	s := newTestServer(n, 0, 0)

	rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := `{"op":"create","note_id":"n","note":{"content":"` + strings.Repeat("x", maxSyncBody) + `"}}`
	rec = do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Zero(t, n.calls)
}

func TestPostSync_RateLimitedPerUser(t *testing.T) {
	n := &fakeNotes{}
	s := newTestServer(n, 0.001, 2)
	body := `{"op":"delete","note_id":"n"}`

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-alice", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = do(t, s, http.MethodPost, common.SyncEndpointPath, "tok-bob", body)
	assert.Equal(t, http.StatusOK, rec.Code, "other users keep their own budget")
	assert.Equal(t, 3, n.calls)
}

func TestPostSync_WrongMethod(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)
	rec := do(t, s, http.MethodGet, common.SyncEndpointPath, "tok-alice", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ---- app shell ----

func TestAssets(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)

	cases := []struct {
		path string
		ct   string
	}{
		{"/", "text/html; charset=utf-8"},
		{"/index.html", "text/html; charset=utf-8"},
		{"/manifest.webmanifest", "application/manifest+json"},
		{"/sw.js", "application/javascript"},
		{"/icons/icon-192.png", "image/png"},
		{"/icons/icon-512.png", "image/png"},
	}
	for _, tc := range cases {
		rec := do(t, s, http.MethodGet, tc.path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, tc.ct, rec.Header().Get("Content-Type"), tc.path)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"), tc.path)
		assert.NotZero(t, rec.Body.Len(), tc.path)
	}

	rec := do(t, s, http.MethodGet, "/sw.js", "", "")
	assert.Equal(t, "/", rec.Header().Get("Service-Worker-Allowed"))
}

func TestAssets_Missing(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)

	rec := do(t, s, http.MethodGet, "/icons/nope.png", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec).Title)
}

func TestAssets_HeadHasNoBody(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)
	rec := do(t, s, http.MethodHead, "/index.html", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

// ---- lifecycle ----

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newTestServer(&fakeNotes{}, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", logging.Nop(), &fakeAuth{}, &fakeNotes{}, 0, 0)
	assert.Error(t, s.Run(context.Background()))
}
