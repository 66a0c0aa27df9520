// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// It returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. Deleting a
	// non-existent token returns common.ErrorNotFound, so that two
	// concurrent rotations of the same token cannot both succeed.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token whose expiry is before now and
	// reports how many rows went away.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
