package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/logging"
)

var (
	ErrUnknownEvent   = errors.New("unknown event kind")
	ErrInvalidState   = errors.New("invalid worker state")
	ErrAssetStatus    = errors.New("asset fetch returned non-success status")
	ErrNoActiveWorker = errors.New("no active worker")
)

// CacheStore persists cache versions and their responses.
type CacheStore interface {
	Open(ctx context.Context, name string) (bool, error)
	Names(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, e *models.CachedResponse) error
	PutAll(ctx context.Context, entries []*models.CachedResponse) error
	Match(ctx context.Context, cacheName, key string) (*models.CachedResponse, error)
}

// TaskQueue is the durable queue of offline writes.
type TaskQueue interface {
	Enqueue(ctx context.Context, payload []byte) (*models.SyncTask, error)
	Pending(ctx context.Context) ([]*models.SyncTask, error)
	MarkSynced(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string) error
}

// SyncSender delivers one queued payload to the server's sync endpoint.
type SyncSender interface {
	PostSync(ctx context.Context, payload []byte) error
}

// Config holds the per-deploy worker settings.
type Config struct {
	// CacheName is the cache version owned by this worker.
	CacheName string
	// BaseURL resolves relative asset paths.
	BaseURL string
	// Assets are pre-cached at install, in order.
	Assets []string

	NetworkTimeout     time.Duration
	InstallTimeout     time.Duration
	SyncRequestTimeout time.Duration
}

// EventKind names a worker entry point.
type EventKind string

const (
	EventInstall  EventKind = "install"
	EventActivate EventKind = "activate"
	EventFetch    EventKind = "fetch"
	EventMessage  EventKind = "message"
	EventSync     EventKind = "sync"
)

// Event is one platform event. Request is set for fetch, Data for message
// and Tag for sync.
type Event struct {
	Kind    EventKind
	Request *http.Request
	Data    []byte
	Tag     string
}

type handler func(ctx context.Context, ev Event) (*http.Response, error)

// Worker is the offline layer singleton of a client process.
type Worker struct {
	cfg     Config
	network http.RoundTripper
	caches  CacheStore
	queue   TaskQueue
	sender  SyncSender
	logger  logging.Logger
	tasks   *TaskGroup

	handlers map[EventKind]handler

	mu            sync.Mutex
	state         State
	activationRun bool
	reg           *Registration
}

// New returns a worker in the installing state. network is the raw
// transport used for every outbound request.
func New(cfg Config, network http.RoundTripper, caches CacheStore, queue TaskQueue, sender SyncSender, logger logging.Logger) *Worker {
	if network == nil {
		network = http.DefaultTransport
	}
	l := logger.With("module", "worker", "cache", cfg.CacheName)
	w := &Worker{
		cfg:     cfg,
		network: network,
		caches:  caches,
		queue:   queue,
		sender:  sender,
		logger:  l,
		tasks:   NewTaskGroup(l),
		state:   StateInstalling,
	}
	w.handlers = map[EventKind]handler{
		EventInstall: func(ctx context.Context, _ Event) (*http.Response, error) {
			return nil, w.install(ctx)
		},
		EventActivate: func(ctx context.Context, _ Event) (*http.Response, error) {
			return nil, w.activate(ctx)
		},
		EventFetch: func(ctx context.Context, ev Event) (*http.Response, error) {
			if ev.Request == nil {
				return nil, errors.New("fetch event without request")
			}
			return w.fetch(ev.Request)
		},
		EventMessage: func(ctx context.Context, ev Event) (*http.Response, error) {
			w.handleMessage(ctx, ev.Data)
			return nil, nil
		},
		EventSync: func(ctx context.Context, ev Event) (*http.Response, error) {
			w.handleSync(ctx, ev.Tag)
			return nil, nil
		},
	}
	return w
}

// Dispatch runs the handler registered for ev.Kind. The response is
// non-nil only for fetch events.
func (w *Worker) Dispatch(ctx context.Context, ev Event) (*http.Response, error) {
	h, ok := w.handlers[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return h(ctx, ev)
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) CacheName() string {
	return w.cfg.CacheName
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	prev := w.state
	w.state = s
	w.mu.Unlock()
	if prev != s {
		w.logger.Debug(context.Background(), "worker state changed", "from", prev.String(), "to", s.String())
	}
}

// Enqueue appends a payload to the sync queue.
func (w *Worker) Enqueue(ctx context.Context, payload []byte) error {
	_, err := w.queue.Enqueue(ctx, payload)
	return err
}

// Wait blocks until all detached tasks have finished.
func (w *Worker) Wait() {
	w.tasks.Wait()
}
