package worker

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"golang.org/x/sync/errgroup"
)

// handleSync replays the pending queue for the sync-notes tag. Every
// request settles before the batch is judged: all acknowledged removes
// the batch, any failure keeps all of it. Errors are logged only.
func (w *Worker) handleSync(ctx context.Context, tag string) {
	if tag != common.SyncTagNotes {
		w.logger.Debug(ctx, "ignoring sync tag", "tag", tag)
		return
	}

	tasks, err := w.queue.Pending(ctx)
	if err != nil {
		w.logger.Error(ctx, "failed to read sync queue", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	ids := make([]string, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		ids[i] = t.ID
		g.Go(func() error {
			if err := w.post(ctx, t.Payload); err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.logger.Error(ctx, "sync batch failed", "tasks", len(ids), "error", err)
		if merr := w.queue.MarkFailed(ctx, ids); merr != nil {
			w.logger.Error(ctx, "failed to record sync attempt", "error", merr)
		}
		return
	}

	if err := w.queue.MarkSynced(ctx, ids); err != nil {
		w.logger.Error(ctx, "failed to remove synced tasks", "error", err)
		return
	}
	w.logger.Info(ctx, "sync batch delivered", "tasks", len(ids))
}

func (w *Worker) post(ctx context.Context, payload []byte) error {
	if w.cfg.SyncRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.SyncRequestTimeout)
		defer cancel()
	}
	return w.sender.PostSync(ctx, payload)
}
