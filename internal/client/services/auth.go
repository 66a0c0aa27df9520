// Package services contains application services for the DeepNote client.
// This file defines the authentication service: online and offline login,
// registration, session resumption and cleanup of the offline login data.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/client/client"
	"github.com/dmitrijs2005/deepnote/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/cryptox"
	"github.com/dmitrijs2005/deepnote/internal/dbx"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - OnlineLogin: authenticate against the server and persist offline login data.
//   - OfflineLogin: verify the password against the local verifier and restore
//     the saved refresh token, so the session resumes once the server is back.
//   - Register: create a new user on the server.
//   - Resume: obtain a fresh access token after an offline login.
//   - SaveSession: re-seal the current refresh token into offline storage.
//   - Logout: forget tokens and wipe offline login data.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	OnlineLogin(ctx context.Context, username, password string) error
	OfflineLogin(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
	Resume(ctx context.Context) error
	SaveSession(ctx context.Context) error
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	creds  *client.Credentials
	db     *sql.DB

	mu  sync.Mutex
	key []byte
}

// NewAuthService constructs an AuthService bound to the given API client,
// the shared session credentials and the local DB.
func NewAuthService(c client.Client, creds *client.Credentials, db *sql.DB) AuthService {
	return &authService{client: c, creds: creds, db: db}
}

// OnlineLogin authenticates against the server. On success it stores the
// username, user id, a fresh salt, the verifier of the derived key and the
// refresh token sealed with that key.
func (a *authService) OnlineLogin(ctx context.Context, username, password string) error {
	userID, err := a.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey([]byte(password), salt)

	if err := a.saveOfflineData(ctx, username, userID, salt, key); err != nil {
		return fmt.Errorf("offline data saving error: %w", err)
	}
	a.setKey(key)
	return nil
}

func (a *authService) saveOfflineData(ctx context.Context, username, userID string, salt, key []byte) error {
	sealed, nonce, err := cryptox.Seal(key, []byte(a.creds.RefreshToken()))
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		values := []struct {
			key   string
			value []byte
		}{
			{metadata.KeyUsername, []byte(username)},
			{metadata.KeyUserID, []byte(userID)},
			{metadata.KeySalt, salt},
			{metadata.KeyVerifier, cryptox.Verifier(key)},
			{metadata.KeyRefreshToken, sealed},
			{metadata.KeyRefreshNonce, nonce},
		}
		for _, v := range values {
			if err := repo.Set(ctx, v.key, v.value); err != nil {
				return err
			}
		}
		return nil
	})
}

// OfflineLogin checks the password against the saved verifier. It returns
// client.ErrLocalDataNotAvailable when no offline data exists and
// common.ErrorUnauthorized when the username or password does not match.
func (a *authService) OfflineLogin(ctx context.Context, username, password string) error {
	saved, err := metadata.NewSQLiteRepository(a.db).List(ctx, metadata.AuthPrefix)
	if err != nil {
		return err
	}
	for _, k := range []string{metadata.KeyUsername, metadata.KeyUserID, metadata.KeySalt, metadata.KeyVerifier} {
		if len(saved[k]) == 0 {
			return client.ErrLocalDataNotAvailable
		}
	}
	if string(saved[metadata.KeyUsername]) != username {
		return common.ErrorUnauthorized
	}

	key := cryptox.DeriveKey([]byte(password), saved[metadata.KeySalt])
	if subtle.ConstantTimeCompare(saved[metadata.KeyVerifier], cryptox.Verifier(key)) == 0 {
		return common.ErrorUnauthorized
	}

	var refresh []byte
	if len(saved[metadata.KeyRefreshToken]) > 0 {
		refresh, err = cryptox.Open(key, saved[metadata.KeyRefreshToken], saved[metadata.KeyRefreshNonce])
		if err != nil {
			return fmt.Errorf("open saved session: %w", err)
		}
	}

	a.creds.Set(string(saved[metadata.KeyUserID]), "", string(refresh))
	common.WipeByteArray(refresh)
	a.setKey(key)
	return nil
}

// Register creates the account. The user still has to log in.
func (a *authService) Register(ctx context.Context, username, password string) error {
	if _, err := a.client.Register(ctx, username, password); err != nil {
		return err
	}
	return nil
}

// Resume trades the restored refresh token for an access token. It is a
// no-op when the session already has one.
func (a *authService) Resume(ctx context.Context) error {
	if a.creds.UserID() == "" || a.creds.AccessToken() != "" {
		return nil
	}
	if err := a.client.Refresh(ctx); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	return a.SaveSession(ctx)
}

// SaveSession seals the current refresh token for the next offline login.
func (a *authService) SaveSession(ctx context.Context) error {
	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == nil || a.creds.RefreshToken() == "" {
		return nil
	}

	sealed, nonce, err := cryptox.Seal(key, []byte(a.creds.RefreshToken()))
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyRefreshToken, sealed); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyRefreshNonce, nonce)
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Logout forgets the session and wipes the offline login data.
func (a *authService) Logout(ctx context.Context) error {
	a.creds.Clear()
	a.setKey(nil)
	return metadata.NewSQLiteRepository(a.db).DeletePrefix(ctx, metadata.AuthPrefix)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) setKey(key []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	common.WipeByteArray(a.key)
	a.key = key
}
