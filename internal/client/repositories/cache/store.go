package cache

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
)

// Store groups repository calls that must be atomic.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open creates the cache if absent and reports whether this call created it.
func (s *Store) Open(ctx context.Context, name string) (bool, error) {
	return NewSQLiteRepository(s.db).Create(ctx, name)
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	return NewSQLiteRepository(s.db).Names(ctx)
}

// Delete drops the cache and its entries in one transaction.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	var existed bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		existed, err = NewSQLiteRepository(tx).Drop(ctx, name)
		return err
	})
	return existed, err
}

// PutAll stores every entry or none of them. Every target cache must
// already be open.
func (s *Store) PutAll(ctx context.Context, entries []*models.CachedResponse) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, e := range entries {
			if err := repo.Put(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Put(ctx context.Context, e *models.CachedResponse) error {
	return s.PutAll(ctx, []*models.CachedResponse{e})
}

// Match returns the entry stored under key, or common.ErrorNotFound.
func (s *Store) Match(ctx context.Context, cacheName, key string) (*models.CachedResponse, error) {
	return NewSQLiteRepository(s.db).Get(ctx, cacheName, key)
}

func (s *Store) Keys(ctx context.Context, cacheName string) ([]string, error) {
	return NewSQLiteRepository(s.db).Keys(ctx, cacheName)
}
