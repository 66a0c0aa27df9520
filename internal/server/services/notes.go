package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/notes"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// NoteService applies note reads and writes on behalf of an authenticated
// user. Every write first checks that the user owns the note.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewNoteService constructs a NoteService.
func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m}
}

// AudioKeyPrefix is the object-storage prefix of every recording of a note.
func AudioKeyPrefix(userID, noteID string) string {
	return fmt.Sprintf("users/%s/notes/%s/", userID, noteID)
}

// List returns the user's notes in the given archive state.
func (s *NoteService) List(ctx context.Context, userID string, archived bool) ([]*models.Note, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	return s.repomanager.Notes(s.db).List(ctx, userID, archived)
}

// Get returns a note the user owns.
func (s *NoteService) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	n, err := s.repomanager.Notes(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, common.ErrorUnauthorized
	}
	return n, nil
}

// Owner returns the user id that owns the note.
func (s *NoteService) Owner(ctx context.Context, id string) (string, error) {
	if err := validateNoteID(id); err != nil {
		return "", err
	}
	return s.repomanager.Notes(s.db).GetOwner(ctx, id)
}

// Create stores a new note for userID. A client-chosen id makes the call
// idempotent: repeating it overwrites the same row. An id that already
// belongs to another user is rejected with common.ErrorUnauthorized.
func (s *NoteService) Create(ctx context.Context, userID string, in models.Note) (*models.Note, error) {
	n, err := prepareNote(userID, in)
	if err != nil {
		return nil, err
	}

	var out *models.Note
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)

		owner, err := repo.GetOwner(ctx, n.ID)
		switch {
		case err == nil && owner != userID:
			return common.ErrorUnauthorized
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return err
		}

		out, err = repo.Upsert(ctx, &n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// replayCreate stores a queued create at most once. When the row exists
// already, a later update may have changed it, so it is returned untouched.
func (s *NoteService) replayCreate(ctx context.Context, userID string, in models.Note) (*models.Note, error) {
	n, err := prepareNote(userID, in)
	if err != nil {
		return nil, err
	}

	var out *models.Note
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)

		var inserted bool
		var err error
		out, inserted, err = repo.Insert(ctx, &n)
		if err != nil || inserted {
			return err
		}
		out, err = repo.Get(ctx, n.ID)
		if err != nil {
			return err
		}
		if out.UserID != userID {
			return common.ErrorUnauthorized
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func prepareNote(userID string, in models.Note) (models.Note, error) {
	if userID == "" {
		return models.Note{}, common.ErrUnauthenticated
	}

	n := in
	n.UserID = userID
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = models.NoteTypeText
	}
	if err := validateStruct(&n); err != nil {
		return models.Note{}, err
	}
	if err := checkAudioKey(userID, n.ID, n.AudioKey); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Update applies patch to a note the user owns.
func (s *NoteService) Update(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: empty patch", common.ErrValidation)
	}
	if err := validateStruct(&patch); err != nil {
		return nil, err
	}
	if err := checkAudioKey(userID, id, patch.AudioKey); err != nil {
		return nil, err
	}

	var out *models.Note
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)
		if err := checkOwner(ctx, repo, userID, id); err != nil {
			return err
		}
		var err error
		out, err = repo.Update(ctx, userID, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a note the user owns.
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return common.ErrUnauthenticated
	}
	if err := validateNoteID(id); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)
		if err := checkOwner(ctx, repo, userID, id); err != nil {
			return err
		}
		return repo.Delete(ctx, userID, id)
	})
}

// ApplySync replays one offline write. Tasks of a batch may arrive in any
// order and a batch may be sent again, so a create never overwrites an
// existing row and deleting a note that is already gone succeeds.
func (s *NoteService) ApplySync(ctx context.Context, userID string, p models.SyncTaskPayload) (*models.Note, error) {
	if err := validateStruct(&p); err != nil {
		return nil, err
	}

	switch p.Op {
	case models.SyncOpCreate:
		if p.Note == nil {
			return nil, fmt.Errorf("%w: create without note", common.ErrValidation)
		}
		if p.Note.ID != "" && p.Note.ID != p.NoteID {
			return nil, fmt.Errorf("%w: note id mismatch", common.ErrValidation)
		}
		in := *p.Note
		in.ID = p.NoteID
		return s.replayCreate(ctx, userID, in)

	case models.SyncOpUpdate:
		if p.Patch == nil {
			return nil, fmt.Errorf("%w: update without patch", common.ErrValidation)
		}
		return s.Update(ctx, userID, p.NoteID, *p.Patch)

	default:
		err := s.Delete(ctx, userID, p.NoteID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
}

func checkOwner(ctx context.Context, repo notes.Repository, userID, id string) error {
	owner, err := repo.GetOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return common.ErrorUnauthorized
	}
	return nil
}

// checkAudioKey keeps recordings inside the note's own storage prefix.
func checkAudioKey(userID, noteID string, key *string) error {
	if key == nil || *key == "" {
		return nil
	}
	if !strings.HasPrefix(*key, AudioKeyPrefix(userID, noteID)) {
		return fmt.Errorf("%w: audio key outside note prefix", common.ErrValidation)
	}
	return nil
}
