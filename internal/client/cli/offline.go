package cli

import (
	"context"

	"github.com/dmitrijs2005/deepnote/internal/client/worker"
	"github.com/dmitrijs2005/deepnote/internal/common"
)

// Sync replays the offline queue now instead of waiting for a reconnect.
func (a *App) Sync(ctx context.Context) error {
	if err := a.reg.Sync(ctx, common.SyncTagNotes); err != nil {
		a.println("Error:", err)
		return err
	}
	n, err := a.queue.Len(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		a.println("Still pending:", plural(n, "change"))
		return nil
	}
	a.println("All changes synced")
	return a.Refresh(ctx)
}

// Upgrade installs a new cache version. It waits until activated or until
// the client goes away.
func (a *App) Upgrade(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("upgrade <cache version>")
	}
	if err := a.reg.Register(ctx, a.newWorker(args[0])); err != nil {
		a.println("Error:", err)
		return err
	}
	if w := a.reg.Waiting(); w != nil {
		a.println("Version", w.CacheName(), "installed and waiting; run 'activate' to switch now")
		return nil
	}
	a.println("Version", args[0], "active")
	return nil
}

// Activate tells a waiting worker to skip waiting.
func (a *App) Activate(ctx context.Context) error {
	if a.reg.Waiting() == nil {
		a.println("No update waiting")
		return nil
	}
	if err := a.reg.PostMessage(ctx, worker.Message{Action: worker.ActionSkipWaiting}); err != nil {
		a.println("Error:", err)
		return err
	}
	a.println("Activating update")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	a.println("Mode:", string(a.Mode()))
	if w := a.reg.Active(); w != nil {
		a.println("Active cache:", w.CacheName())
	} else {
		a.println("Active cache: none")
	}
	if w := a.reg.Waiting(); w != nil {
		a.println("Waiting update:", w.CacheName())
	}
	if n, err := a.queue.Len(ctx); err == nil {
		a.println("Pending changes:", n)
	}
	a.println("Notes:", a.noteCount())
	switch {
	case a.state.IsInstalled():
		a.println("Installed: yes")
	case a.state.IsInstallable():
		a.println("Installed: no (installable)")
	default:
		a.println("Installed: no")
	}
	return nil
}
