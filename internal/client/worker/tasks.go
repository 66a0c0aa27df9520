package worker

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/logging"
)

// TaskGroup runs detached tasks. Nobody awaits their result; a failure is
// logged and otherwise dropped. Wait blocks until every started task has
// finished.
type TaskGroup struct {
	wg     sync.WaitGroup
	logger logging.Logger
}

func NewTaskGroup(logger logging.Logger) *TaskGroup {
	return &TaskGroup{logger: logger}
}

// Go starts fn on a context detached from any caller.
func (g *TaskGroup) Go(name string, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx := context.Background()
		if err := fn(ctx); err != nil {
			g.logger.Error(ctx, "detached task failed", "task", name, "error", err)
		}
	}()
}

func (g *TaskGroup) Wait() {
	g.wg.Wait()
}
