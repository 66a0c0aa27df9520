package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	AddNote(ctx context.Context) error
	AddVoice(ctx context.Context, args []string) error
	Play(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Pin(ctx context.Context, args []string, pinned bool) error
	Archive(ctx context.Context, args []string, archived bool) error
	Sync(ctx context.Context) error
	Upgrade(ctx context.Context, args []string) error
	Activate(ctx context.Context) error
	Status(ctx context.Context) error
	DismissInstall(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, status, exit"
	helpLoggedIn  = "Available commands: (l)ist [all|archived|pinned|voice|text|color=..|q=..], refresh, show, add, " +
		"addvoice, play, edit, delete, pin, unpin, archive, unarchive, sync, upgrade, activate, dismiss, status, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the DeepNote CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the rest as arguments. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Note commands require a session; without one the user is told to log in.
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("dn %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "register":
			_ = a.Register(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "status":
			_ = a.Status(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if isNoteCommand(cmd) {
				printlnFn("Please log in first")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "l", "list":
			_ = a.List(ctx, args)
		case "refresh":
			_ = a.Refresh(ctx)
		case "show":
			_ = a.Show(ctx, args)
		case "add":
			_ = a.AddNote(ctx)
		case "addvoice":
			_ = a.AddVoice(ctx, args)
		case "play":
			_ = a.Play(ctx, args)
		case "edit":
			_ = a.Edit(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "pin", "unpin":
			_ = a.Pin(ctx, args, cmd == "pin")
		case "archive", "unarchive":
			_ = a.Archive(ctx, args, cmd == "archive")
		case "sync":
			_ = a.Sync(ctx)
		case "upgrade":
			_ = a.Upgrade(ctx, args)
		case "activate":
			_ = a.Activate(ctx)
		case "dismiss":
			_ = a.DismissInstall(ctx)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isNoteCommand(cmd string) bool {
	switch cmd {
	case "l", "list", "refresh", "show", "add", "addvoice", "play", "edit", "delete",
		"pin", "unpin", "archive", "unarchive", "sync", "upgrade", "activate", "dismiss", "logout":
		return true
	}
	return false
}
