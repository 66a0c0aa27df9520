package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/logging"
)

// Pinger probes the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineWatcher polls the backend and reports connectivity changes. Every
// transition from offline to online calls OnOnline, which normally raises
// the sync-notes event.
type OnlineWatcher struct {
	pinger       Pinger
	probeTimeout time.Duration
	logger       logging.Logger
	online       atomic.Bool

	OnOnline  func(ctx context.Context)
	OnOffline func(ctx context.Context)
}

const defaultProbeTimeout = 3 * time.Second

func NewOnlineWatcher(p Pinger, probeTimeout time.Duration, logger logging.Logger) *OnlineWatcher {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &OnlineWatcher{
		pinger:       p,
		probeTimeout: probeTimeout,
		logger:       logger.With("module", "online"),
	}
}

func (o *OnlineWatcher) Online() bool {
	return o.online.Load()
}

// Check runs one probe and returns the resulting status.
func (o *OnlineWatcher) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	err := o.pinger.Ping(pctx)
	cancel()

	now := err == nil
	was := o.online.Swap(now)
	switch {
	case now && !was:
		o.logger.Info(ctx, "backend reachable")
		if o.OnOnline != nil {
			o.OnOnline(ctx)
		}
	case !now && was:
		o.logger.Warn(ctx, "backend unreachable", "error", err)
		if o.OnOffline != nil {
			o.OnOffline(ctx)
		}
	}
	return now
}

// Run probes every interval until ctx is done.
func (o *OnlineWatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
