package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/client/notes"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
)

var errUsage = errors.New("usage")

func (a *App) usage(text string) error {
	a.println("Usage:", text)
	return errUsage
}

// report prints the outcome of a mutation. A queued change is not a failure.
func (a *App) report(n *models.Note, err error) error {
	switch {
	case errors.Is(err, notes.ErrQueued):
		a.println("Offline: change queued, it will be sent when the server is back")
		return nil
	case err != nil:
		a.println("Error:", err)
		return err
	case n != nil:
		a.println(formatNote(n))
	}
	return nil
}

// List prints the notes matching args. Without args it repeats the last view.
func (a *App) List(ctx context.Context, args []string) error {
	a.mu.Lock()
	f := a.filter
	a.mu.Unlock()

	if len(args) > 0 {
		var err error
		if f, err = parseFilter(args); err != nil {
			a.println("Error:", err)
			return err
		}
		a.mu.Lock()
		a.filter = f
		a.mu.Unlock()
	}

	list := a.notes.List(f)
	if len(list) == 0 {
		a.println("No notes")
	}
	for _, n := range list {
		a.println(formatNote(n))
	}
	return nil
}

// Refresh reloads the mirror from the server or, offline, from the cache.
func (a *App) Refresh(ctx context.Context) error {
	fromCache, err := a.notes.Fetch(ctx)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	if fromCache {
		a.println("Showing cached notes (offline)")
	}
	return a.List(ctx, nil)
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("show <id>")
	}
	n, err := a.notes.Get(args[0])
	if err != nil {
		a.println("Error:", err)
		return err
	}
	a.println(formatNote(n))
	if n.Content != "" {
		a.println(n.Content)
	}
	if n.Transcription != nil {
		a.println("Transcription:", *n.Transcription)
	}
	return nil
}

func (a *App) AddNote(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	color, err := getSimpleText(a.reader, "Color (optional)", a.out)
	if err != nil {
		return err
	}
	return a.report(a.notes.Create(ctx, rpc.NoteInput{Title: title, Content: content, Color: color, Type: string(models.NoteTypeText)}))
}

// AddVoice creates a voice note and uploads its recording.
func (a *App) AddVoice(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("addvoice <audio file>")
	}
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	n, err := a.notes.Create(ctx, rpc.NoteInput{Title: title, Type: string(models.NoteTypeVoice)})
	if err != nil {
		return a.report(nil, err)
	}
	return a.report(a.notes.AttachAudio(ctx, n.ID, args[0]))
}

func (a *App) Play(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("play <id>")
	}
	url, err := a.notes.AudioURL(ctx, args[0])
	if err != nil {
		a.println("Error:", err)
		return err
	}
	a.println(url)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("edit <id>")
	}
	n, err := a.notes.Get(args[0])
	if err != nil {
		a.println("Error:", err)
		return err
	}

	var patch rpc.NotePatch
	if v, ok, err := GetOptional(a.reader, "Title", n.Title, a.out); err != nil {
		return err
	} else if ok {
		patch.Title = &v
	}
	if v, ok, err := GetOptional(a.reader, "Content", n.Content, a.out); err != nil {
		return err
	} else if ok {
		patch.Content = &v
	}
	if v, ok, err := GetOptional(a.reader, "Color", n.Color, a.out); err != nil {
		return err
	} else if ok {
		patch.Color = &v
	}
	if patch.Empty() {
		a.println("Nothing changed")
		return nil
	}
	return a.report(a.notes.Update(ctx, n.ID, patch))
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("delete <id>")
	}
	err := a.notes.Delete(ctx, args[0])
	if err == nil {
		a.println("Deleted", args[0])
		return nil
	}
	return a.report(nil, err)
}

func (a *App) Pin(ctx context.Context, args []string, pinned bool) error {
	if len(args) != 1 {
		return a.usage("pin|unpin <id>")
	}
	return a.report(a.notes.Pin(ctx, args[0], pinned))
}

func (a *App) Archive(ctx context.Context, args []string, archived bool) error {
	if len(args) != 1 {
		return a.usage("archive|unarchive <id>")
	}
	return a.report(a.notes.Archive(ctx, args[0], archived))
}

func (a *App) noteCount() int {
	return len(a.notes.List(models.Filter{})) + len(a.notes.List(models.Filter{Archived: true}))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
