package users

import (
	"context"

	"github.com/dmitrijs2005/deepnote/internal/server/models"
)

// Repository stores user accounts.
type Repository interface {
	// Create inserts user and fills its ID. A taken username yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for an unknown username.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
