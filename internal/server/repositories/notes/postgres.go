package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
)

const columns = `id, user_id, title, content, transcription, type, color, pinned, archived, audio_key, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*models.Note, error) {
	n := &models.Note{}
	var transcription, audioKey sql.NullString
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &transcription, &n.Type, &n.Color,
		&n.Pinned, &n.Archived, &audioKey, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if transcription.Valid {
		n.Transcription = &transcription.String
	}
	if audioKey.Valid {
		n.AudioKey = &audioKey.String
	}
	return n, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, n *models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (id, user_id, title, content, transcription, type, color, pinned, archived, audio_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			transcription = EXCLUDED.transcription,
			type = EXCLUDED.type,
			color = EXCLUDED.color,
			pinned = EXCLUDED.pinned,
			archived = EXCLUDED.archived,
			audio_key = EXCLUDED.audio_key,
			updated_at = now()
		WHERE notes.user_id = EXCLUDED.user_id
		RETURNING ` + columns

	out, err := scanNote(r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Title, n.Content,
		n.Transcription, n.Type, n.Color, n.Pinned, n.Archived, n.AudioKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, n *models.Note) (*models.Note, bool, error) {
	query := `
		INSERT INTO notes (id, user_id, title, content, transcription, type, color, pinned, archived, audio_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + columns

	out, err := scanNote(r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Title, n.Content,
		n.Transcription, n.Type, n.Color, n.Pinned, n.Archived, n.AudioKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	return out, true, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + columns + ` FROM notes WHERE id = $1`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetOwner(ctx context.Context, id string) (string, error) {
	query := `SELECT user_id FROM notes WHERE id = $1`

	var owner string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return owner, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, archived bool) ([]*models.Note, error) {
	query := `
		SELECT ` + columns + `
		FROM notes
		WHERE user_id = $1 AND archived = $2
		ORDER BY updated_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID, archived)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	query := `
		UPDATE notes SET
			title = COALESCE($3, title),
			content = COALESCE($4, content),
			transcription = COALESCE($5, transcription),
			color = COALESCE($6, color),
			pinned = COALESCE($7, pinned),
			archived = COALESCE($8, archived),
			audio_key = COALESCE($9, audio_key),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + columns

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id, userID,
		patch.Title, patch.Content, patch.Transcription, patch.Color, patch.Pinned, patch.Archived, patch.AudioKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
