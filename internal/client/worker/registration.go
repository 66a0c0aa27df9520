package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/logging"
)

// Registration hosts workers for one scope. At most one worker is active
// and at most one is waiting.
type Registration struct {
	network http.RoundTripper
	logger  logging.Logger

	mu      sync.Mutex
	active  *Worker
	waiting *Worker
	clients map[*Client]struct{}
}

// NewRegistration returns an empty registration. Uncontrolled clients send
// their requests straight to network.
func NewRegistration(network http.RoundTripper, logger logging.Logger) *Registration {
	if network == nil {
		network = http.DefaultTransport
	}
	return &Registration{
		network: network,
		logger:  logger.With("module", "registration"),
		clients: make(map[*Client]struct{}),
	}
}

// Register installs w. If no worker is active, or no client is attached to
// keep the current one alive, w activates right away; otherwise it waits for
// a skipWaiting message or for every client to be released.
func (r *Registration) Register(ctx context.Context, w *Worker) error {
	w.mu.Lock()
	w.reg = r
	w.mu.Unlock()

	if _, err := w.Dispatch(ctx, Event{Kind: EventInstall}); err != nil {
		return err
	}

	r.mu.Lock()
	if prev := r.waiting; prev != nil && prev != w {
		prev.setState(StateRedundant)
	}
	r.waiting = w
	promote := r.active == nil || len(r.clients) == 0
	r.mu.Unlock()

	if promote {
		_, err := w.Dispatch(ctx, Event{Kind: EventActivate})
		return err
	}
	r.logger.Info(ctx, "worker waiting", "cache", w.CacheName())
	return nil
}

func (r *Registration) Active() *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Registration) Waiting() *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// Attach opens a client. It is controlled by the active worker, if any.
func (r *Registration) Attach() *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &Client{reg: r, controller: r.active}
	r.clients[c] = struct{}{}
	return c
}

// PostMessage delivers msg to the waiting worker, or to the active one
// when nothing waits.
func (r *Registration) PostMessage(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.PostRaw(ctx, data)
}

// PostRaw delivers an undecoded message body.
func (r *Registration) PostRaw(ctx context.Context, data []byte) error {
	r.mu.Lock()
	target := r.waiting
	if target == nil {
		target = r.active
	}
	r.mu.Unlock()

	if target == nil {
		return ErrNoActiveWorker
	}
	_, err := target.Dispatch(ctx, Event{Kind: EventMessage, Data: data})
	return err
}

// Sync raises a background sync event on the active worker.
func (r *Registration) Sync(ctx context.Context, tag string) error {
	w := r.Active()
	if w == nil {
		return ErrNoActiveWorker
	}
	_, err := w.Dispatch(ctx, Event{Kind: EventSync, Tag: tag})
	return err
}

// Wait flushes detached tasks of the active and waiting workers.
func (r *Registration) Wait() {
	r.mu.Lock()
	workers := []*Worker{r.active, r.waiting}
	r.mu.Unlock()
	for _, w := range workers {
		if w != nil {
			w.Wait()
		}
	}
}

func (r *Registration) beginActivation(w *Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting == w {
		r.waiting = nil
	}
}

func (r *Registration) activationFailed(w *Worker) {
	r.logger.Warn(context.Background(), "worker activation failed", "cache", w.CacheName())
}

// claim makes w the active worker and the controller of every client.
func (r *Registration) claim(w *Worker) {
	r.mu.Lock()
	prev := r.active
	r.active = w
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	if prev != nil && prev != w {
		prev.setState(StateRedundant)
	}
	for _, c := range clients {
		c.setController(w)
	}
}

func (r *Registration) release(ctx context.Context, c *Client) error {
	r.mu.Lock()
	delete(r.clients, c)
	next := r.waiting
	promote := len(r.clients) == 0 && next != nil
	r.mu.Unlock()

	if !promote {
		return nil
	}
	_, err := next.Dispatch(ctx, Event{Kind: EventActivate})
	return err
}

// Client is a page controlled (or not) by a worker.
type Client struct {
	reg *Registration

	mu         sync.Mutex
	controller *Worker
	released   bool
}

// Controller returns the controlling worker, or nil.
func (c *Client) Controller() *Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *Client) setController(w *Worker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.released {
		c.controller = w
	}
}

// Release detaches the client. Releasing the last client lets a waiting
// worker activate.
func (c *Client) Release(ctx context.Context) error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.controller = nil
	c.mu.Unlock()
	return c.reg.release(ctx, c)
}

// Transport routes requests through the controlling worker's fetch handler.
// Without an active controller requests go straight to the network.
func (c *Client) Transport() http.RoundTripper {
	return clientTransport{c: c}
}

type clientTransport struct {
	c *Client
}

func (t clientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	w := t.c.Controller()
	if w == nil || w.State() != StateActive {
		return t.c.reg.network.RoundTrip(req)
	}
	return w.Dispatch(req.Context(), Event{Kind: EventFetch, Request: req})
}
