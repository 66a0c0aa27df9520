package synctasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, t *models.SyncTask) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_tasks (id, user_id, payload, created_at, attempts) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Payload, t.CreatedAt.UnixNano(), t.Attempts)
	if err != nil {
		return fmt.Errorf("failed to add sync task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Pending(ctx context.Context, userID string) ([]*models.SyncTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, payload, created_at, attempts FROM sync_tasks
		WHERE user_id = ? ORDER BY created_at, rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.SyncTask
	for rows.Next() {
		t := &models.SyncTask{}
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Payload, &createdAt, &t.Attempts); err != nil {
			return nil, err
		}
		t.CreatedAt = time.Unix(0, createdAt)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inClause(`DELETE FROM sync_tasks WHERE id IN `, ids)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete sync tasks: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementAttempts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inClause(`UPDATE sync_tasks SET attempts = attempts + 1 WHERE id IN `, ids)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sync task attempts: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_tasks WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync tasks: %w", err)
	}
	return n, nil
}

func inClause(prefix string, ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return prefix + "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}
