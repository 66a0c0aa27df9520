package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/deepnote/internal/client/client"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, userName, password); err != nil {
		a.println("Registration failed:", err)
		return err
	}
	a.println("Success! You can log in now.")
	return nil
}

// Login tries the server first and falls back to the offline login data
// when the server is unreachable. On success the note mirror is loaded.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	mode := ModeOnline
	err = a.auth.OnlineLogin(ctx, userName, password)
	if errors.Is(err, client.ErrUnavailable) {
		a.logger.Info(ctx, "server unavailable, trying offline login")
		mode = ModeOffline
		err = a.auth.OfflineLogin(ctx, userName, password)
	}
	if err != nil {
		a.println("Login unsuccessful:", err)
		if mode == ModeOffline {
			a.setMode(ModeDisabled)
		}
		return err
	}

	a.mu.Lock()
	a.userName = userName
	a.mu.Unlock()
	a.setMode(mode)
	a.println("Login successful")

	a.notes.Reset()
	if _, err := a.notes.Fetch(ctx); err != nil {
		a.logger.Warn(ctx, "notes not loaded", "error", err)
	}
	return nil
}

// Logout forgets the session, the offline login data and the note mirror.
// Queued changes stay with the user that made them.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.notes.Reset()
	a.mu.Lock()
	a.userName = ""
	a.mu.Unlock()
	a.println("Logged out")
	return nil
}
