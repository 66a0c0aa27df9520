// Package notes keeps the client's mirror of the acting user's notes and
// routes every change through the backend after an ownership check.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/client/client"
	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/netx"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/google/uuid"
)

// ErrQueued marks a change that could not reach the server and was put on
// the sync queue instead. The local mirror is not changed.
var ErrQueued = errors.New("change queued for sync")

// Lister reads the note table over HTTP.
type Lister interface {
	ListNotes(ctx context.Context, archived bool) ([]*models.Note, bool, error)
}

// Remote applies note mutations on the server.
type Remote interface {
	CreateNote(ctx context.Context, in rpc.NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch rpc.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	GetNoteOwner(ctx context.Context, id string) (string, error)
	AudioUploadURL(ctx context.Context, noteID, contentType string) (string, string, error)
	AudioDownloadURL(ctx context.Context, noteID string) (string, error)
}

// Queue takes offline changes.
type Queue interface {
	Enqueue(ctx context.Context, payload []byte) (*models.SyncTask, error)
}

// Session knows the acting user.
type Session interface {
	UserID() string
}

type Store struct {
	lister  Lister
	remote  Remote
	queue   Queue
	session Session
	upload  *http.Client
	logger  logging.Logger

	mu        sync.RWMutex
	notes     map[string]*models.Note
	fromCache bool
}

func NewStore(lister Lister, remote Remote, queue Queue, session Session, logger logging.Logger) *Store {
	return &Store{
		lister:  lister,
		remote:  remote,
		queue:   queue,
		session: session,
		upload:  http.DefaultClient,
		logger:  logger.With("module", "notes"),
		notes:   make(map[string]*models.Note),
	}
}

func (s *Store) actingUser() (string, error) {
	uid := s.session.UserID()
	if uid == "" {
		return "", common.ErrUnauthenticated
	}
	return uid, nil
}

// Fetch replaces the mirror with the server's notes, archived included.
// It reports whether the answer came from the offline cache.
func (s *Store) Fetch(ctx context.Context) (bool, error) {
	if _, err := s.actingUser(); err != nil {
		return false, err
	}

	active, cached1, err := s.lister.ListNotes(ctx, false)
	if err != nil {
		return false, fmt.Errorf("list notes: %w", err)
	}
	archived, cached2, err := s.lister.ListNotes(ctx, true)
	if err != nil {
		return false, fmt.Errorf("list archived notes: %w", err)
	}

	next := make(map[string]*models.Note, len(active)+len(archived))
	for _, n := range append(active, archived...) {
		next[n.ID] = n
	}

	s.mu.Lock()
	s.notes = next
	s.fromCache = cached1 || cached2
	s.mu.Unlock()
	return cached1 || cached2, nil
}

// Reset forgets the mirrored notes, for instance when the user signs out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.notes = make(map[string]*models.Note)
	s.fromCache = false
	s.mu.Unlock()
}

// FromCache reports whether the last Fetch was served from the cache.
func (s *Store) FromCache() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromCache
}

// List returns copies of the notes matching f, pinned first and most
// recently updated next.
func (s *Store) List(f models.Filter) []*models.Note {
	s.mu.RLock()
	out := make([]*models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if f.Match(n) {
			c := *n
			out = append(out, &c)
		}
	}
	s.mu.RUnlock()

	models.SortNotes(out)
	return out
}

// Get returns a copy of the mirrored note or common.ErrorNotFound.
func (s *Store) Get(id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *n
	return &c, nil
}

// Create adds a note for the acting user. The id is generated here so that
// a queued create can be replayed safely.
func (s *Store) Create(ctx context.Context, in rpc.NoteInput) (*models.Note, error) {
	if _, err := s.actingUser(); err != nil {
		return nil, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Type == "" {
		in.Type = string(models.NoteTypeText)
	}

	n, err := s.remote.CreateNote(ctx, in)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return nil, s.enqueue(ctx, rpc.SyncPayload{Op: rpc.OpCreate, NoteID: in.ID, Note: &in}, err)
		}
		return nil, err
	}

	s.put(n)
	return copyNote(n), nil
}

// Update changes the fields set in patch.
func (s *Store) Update(ctx context.Context, id string, patch rpc.NotePatch) (*models.Note, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}
	uid, err := s.actingUser()
	if err != nil {
		return nil, err
	}

	offline := func(cause error) error {
		return s.enqueueOwned(ctx, uid, id, rpc.SyncPayload{Op: rpc.OpUpdate, NoteID: id, Patch: &patch}, cause)
	}

	if err := s.checkOwner(ctx, uid, id); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return nil, offline(err)
		}
		return nil, err
	}

	n, err := s.remote.UpdateNote(ctx, id, patch)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return nil, offline(err)
		}
		return nil, err
	}

	s.put(n)
	return copyNote(n), nil
}

// Delete removes the note.
func (s *Store) Delete(ctx context.Context, id string) error {
	uid, err := s.actingUser()
	if err != nil {
		return err
	}

	offline := func(cause error) error {
		return s.enqueueOwned(ctx, uid, id, rpc.SyncPayload{Op: rpc.OpDelete, NoteID: id}, cause)
	}

	if err := s.checkOwner(ctx, uid, id); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return offline(err)
		}
		return err
	}

	if err := s.remote.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return offline(err)
		}
		return err
	}

	s.mu.Lock()
	delete(s.notes, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) Pin(ctx context.Context, id string, pinned bool) (*models.Note, error) {
	return s.Update(ctx, id, rpc.NotePatch{Pinned: &pinned})
}

func (s *Store) Archive(ctx context.Context, id string, archived bool) (*models.Note, error) {
	return s.Update(ctx, id, rpc.NotePatch{Archived: &archived})
}

// AttachAudio uploads the file at path as the note's recording. It needs
// the server; nothing is queued.
func (s *Store) AttachAudio(ctx context.Context, id, path string) (*models.Note, error) {
	uid, err := s.actingUser()
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, uid, id); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, key, err := s.remote.AudioUploadURL(ctx, id, contentType)
	if err != nil {
		return nil, fmt.Errorf("get upload url: %w", err)
	}
	if err := netx.Upload(ctx, s.upload, url, contentType, f, fi.Size()); err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	n, err := s.remote.UpdateNote(ctx, id, rpc.NotePatch{AudioKey: &key})
	if err != nil {
		return nil, err
	}
	s.put(n)
	s.logger.Info(ctx, "audio attached", "note", id, "bytes", fi.Size())
	return copyNote(n), nil
}

// AudioURL returns a short-lived download link for the note's recording.
func (s *Store) AudioURL(ctx context.Context, id string) (string, error) {
	uid, err := s.actingUser()
	if err != nil {
		return "", err
	}
	if err := s.checkOwner(ctx, uid, id); err != nil {
		return "", err
	}
	return s.remote.AudioDownloadURL(ctx, id)
}

func (s *Store) checkOwner(ctx context.Context, uid, id string) error {
	owner, err := s.remote.GetNoteOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner != uid {
		return common.ErrorUnauthorized
	}
	return nil
}

// enqueueOwned queues a change to an existing note only when the mirror
// says the acting user owns it. Otherwise cause is returned unchanged.
func (s *Store) enqueueOwned(ctx context.Context, uid, id string, p rpc.SyncPayload, cause error) error {
	s.mu.RLock()
	n, ok := s.notes[id]
	owned := ok && n.UserID == uid
	s.mu.RUnlock()

	if !owned {
		return cause
	}
	return s.enqueue(ctx, p, cause)
}

func (s *Store) enqueue(ctx context.Context, p rpc.SyncPayload, cause error) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if _, err := s.queue.Enqueue(ctx, data); err != nil {
		return fmt.Errorf("enqueue %s %s: %w", p.Op, p.NoteID, err)
	}
	s.logger.Info(ctx, "change queued", "op", p.Op, "note", p.NoteID)
	return fmt.Errorf("%w: %w", ErrQueued, cause)
}

func (s *Store) put(n *models.Note) {
	c := *n
	s.mu.Lock()
	s.notes[n.ID] = &c
	s.mu.Unlock()
}

func copyNote(n *models.Note) *models.Note {
	c := *n
	return &c
}
