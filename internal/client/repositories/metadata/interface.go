// Package metadata stores small client values (offline login data, app
// state) in the local key/value table.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyAppState     = "deepnote.app_state"
	KeyUsername     = "auth.username"
	KeyUserID       = "auth.user_id"
	KeySalt         = "auth.salt"
	KeyVerifier     = "auth.verifier"
	KeyRefreshToken = "auth.refresh_token"
	KeyRefreshNonce = "auth.refresh_nonce"

	// AuthPrefix groups the offline login keys.
	AuthPrefix = "auth."
)

// Repository is a byte-valued key/value store. Get returns (nil, nil) for
// an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
