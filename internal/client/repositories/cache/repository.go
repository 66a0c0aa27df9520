// Package cache persists named caches of HTTP responses in the client
// SQLite database.
//
// A cache is a named bucket (the cache version); entries inside it are
// addressed by request key. The package exposes row-level operations on a
// DBTX (SQLiteRepository) and a transactional Store used by the worker.
package cache

import (
	"context"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
)

// Repository is the row-level contract over caches and cache_entries.
type Repository interface {
	// Create registers name and reports whether it did not exist before.
	Create(ctx context.Context, name string) (bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	Names(ctx context.Context) ([]string, error)
	// Drop removes name and all of its entries and reports whether it existed.
	Drop(ctx context.Context, name string) (bool, error)
	// Put returns common.ErrorNotFound when the cache does not exist.
	Put(ctx context.Context, e *models.CachedResponse) error
	// Get returns common.ErrorNotFound on a miss.
	Get(ctx context.Context, cacheName, key string) (*models.CachedResponse, error)
	Keys(ctx context.Context, cacheName string) ([]string, error)
}
