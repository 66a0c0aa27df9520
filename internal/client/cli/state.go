package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
)

const (
	stateLastView          = "last_view"
	stateLastColor         = "last_color"
	statePromptDismissedAt = "install_prompt_dismissed_at"
)

// restoreState reapplies the last list view.
func (a *App) restoreState(ctx context.Context) {
	st := a.state.Load(ctx)
	if st == nil {
		return
	}
	var f models.Filter
	if v, _ := st[stateLastView].(string); v != "" {
		f, _ = parseFilter([]string{v})
	}
	if c, _ := st[stateLastColor].(string); c != "" {
		f.Color = c
	}
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()
}

func (a *App) saveState(ctx context.Context) {
	a.mu.Lock()
	f := a.filter
	a.mu.Unlock()

	st := map[string]any{
		stateLastView: viewName(f),
	}
	if f.Color != "" {
		st[stateLastColor] = f.Color
	}
	if prev := a.state.Load(ctx); prev != nil {
		if v, ok := prev[statePromptDismissedAt]; ok {
			st[statePromptDismissedAt] = v
		}
	}
	a.state.Save(ctx, st)
}

// DismissInstall records that the user declined the install prompt.
func (a *App) DismissInstall(ctx context.Context) error {
	st := a.state.Load(ctx)
	if st == nil {
		st = map[string]any{}
	}
	st[statePromptDismissedAt] = time.Now().Unix()
	a.state.Save(ctx, st)
	a.println("Install prompt dismissed")
	return nil
}

func viewName(f models.Filter) string {
	switch {
	case f.Archived:
		return "archived"
	case f.Pinned != nil && *f.Pinned:
		return "pinned"
	case f.Type == models.NoteTypeVoice:
		return "voice"
	default:
		return "all"
	}
}
