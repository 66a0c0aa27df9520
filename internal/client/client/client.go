package client

import (
	"context"
	"sync"
)

// Client is the account part of the remote API.
type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Refresh(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Credentials holds the session tokens shared by the gRPC and REST clients.
type Credentials struct {
	mu           sync.RWMutex
	userID       string
	accessToken  string
	refreshToken string
}

func (c *Credentials) Set(userID, access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID, c.accessToken, c.refreshToken = userID, access, refresh
}

func (c *Credentials) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

func (c *Credentials) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

func (c *Credentials) Clear() {
	c.Set("", "", "")
}
