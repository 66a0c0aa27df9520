// Package synctasks is the durable queue of offline writes waiting to be
// replayed against the server. Tasks are appended on enqueue and deleted
// only after the server acknowledged them.
package synctasks

import (
	"context"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
)

type Repository interface {
	Add(ctx context.Context, task *models.SyncTask) error
	// Pending returns the tasks of userID in enqueue order.
	Pending(ctx context.Context, userID string) ([]*models.SyncTask, error)
	Delete(ctx context.Context, ids []string) error
	IncrementAttempts(ctx context.Context, ids []string) error
	Count(ctx context.Context, userID string) (int, error)
}
