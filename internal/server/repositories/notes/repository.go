// Package notes declares and implements the server-side note repository.
// Every write is restricted to the row owner.
package notes

import (
	"context"

	"github.com/dmitrijs2005/deepnote/internal/server/models"
)

// Repository stores notes.
type Repository interface {
	// Upsert inserts n or, when a row with the same id already belongs to
	// n.UserID, overwrites its editable fields. A row owned by someone else
	// is left alone and common.ErrorUnauthorized is returned.
	Upsert(ctx context.Context, n *models.Note) (*models.Note, error)
	// Insert adds n unless a row with its id exists already, in which case
	// nothing is written and inserted is false.
	Insert(ctx context.Context, n *models.Note) (out *models.Note, inserted bool, err error)
	// Get returns common.ErrorNotFound for an unknown id.
	Get(ctx context.Context, id string) (*models.Note, error)
	// GetOwner returns the user id of the note or common.ErrorNotFound.
	GetOwner(ctx context.Context, id string) (string, error)
	// List returns userID's notes in the given archive state, most recently
	// updated first.
	List(ctx context.Context, userID string, archived bool) ([]*models.Note, error)
	// Update applies patch to the note if userID owns it, else
	// common.ErrorNotFound.
	Update(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error)
	// Delete removes the note if userID owns it, else common.ErrorNotFound.
	Delete(ctx context.Context, userID, id string) error
}
