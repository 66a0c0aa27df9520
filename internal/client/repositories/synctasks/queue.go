package synctasks

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
	"github.com/google/uuid"
)

// Session knows the acting user.
type Session interface {
	UserID() string
}

// Queue is the transactional face of the sync_tasks table. Every task
// belongs to the user that was signed in when it was queued and is only
// visible while that user is signed in again.
type Queue struct {
	db      *sql.DB
	session Session
	now     func() time.Time
}

func NewQueue(db *sql.DB, session Session) *Queue {
	return &Queue{db: db, session: session, now: time.Now}
}

// Enqueue appends payload as a new task of the acting user.
func (q *Queue) Enqueue(ctx context.Context, payload []byte) (*models.SyncTask, error) {
	uid := q.session.UserID()
	if uid == "" {
		return nil, common.ErrUnauthenticated
	}
	t := &models.SyncTask{
		ID:        uuid.NewString(),
		UserID:    uid,
		Payload:   payload,
		CreatedAt: q.now(),
	}
	if err := NewSQLiteRepository(q.db).Add(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Pending returns the acting user's tasks. Nobody signed in means none.
func (q *Queue) Pending(ctx context.Context) ([]*models.SyncTask, error) {
	uid := q.session.UserID()
	if uid == "" {
		return nil, nil
	}
	return NewSQLiteRepository(q.db).Pending(ctx, uid)
}

// MarkSynced removes acknowledged tasks in one transaction.
func (q *Queue) MarkSynced(ctx context.Context, ids []string) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Delete(ctx, ids)
	})
}

// MarkFailed bumps the attempt counter of every task in a failed batch.
func (q *Queue) MarkFailed(ctx context.Context, ids []string) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).IncrementAttempts(ctx, ids)
	})
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	uid := q.session.UserID()
	if uid == "" {
		return 0, nil
	}
	return NewSQLiteRepository(q.db).Count(ctx, uid)
}
