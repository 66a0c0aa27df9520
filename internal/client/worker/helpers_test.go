package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/logging"
)

var errOffline = errors.New("dial tcp: network is unreachable")

// memCaches is an in-memory CacheStore.
type memCaches struct {
	mu      sync.Mutex
	caches  map[string]map[string]*models.CachedResponse
	puts    int
	putErr  error
	delErr  map[string]error
	onDel   func(name string)
	matches int
}

func newMemCaches(names ...string) *memCaches {
	m := &memCaches{caches: map[string]map[string]*models.CachedResponse{}, delErr: map[string]error{}}
	for _, n := range names {
		m.caches[n] = map[string]*models.CachedResponse{}
	}
	return m
}

func (m *memCaches) Open(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caches[name]; ok {
		return false, nil
	}
	m.caches[name] = map[string]*models.CachedResponse{}
	return true, nil
}

func (m *memCaches) Names(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.caches))
	for n := range m.caches {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memCaches) Delete(_ context.Context, name string) (bool, error) {
	if m.onDel != nil {
		m.onDel(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.delErr[name]; err != nil {
		return false, err
	}
	_, ok := m.caches[name]
	delete(m.caches, name)
	return ok, nil
}

func (m *memCaches) Put(ctx context.Context, e *models.CachedResponse) error {
	return m.PutAll(ctx, []*models.CachedResponse{e})
}

func (m *memCaches) PutAll(_ context.Context, entries []*models.CachedResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	for _, e := range entries {
		if _, ok := m.caches[e.CacheName]; !ok {
			return common.ErrorNotFound
		}
	}
	for _, e := range entries {
		m.caches[e.CacheName][e.Key] = e
		m.puts++
	}
	return nil
}

func (m *memCaches) Match(_ context.Context, cacheName, key string) (*models.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches++
	if e, ok := m.caches[cacheName][key]; ok {
		return e, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memCaches) entries(name string) map[string]*models.CachedResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*models.CachedResponse{}
	for k, v := range m.caches[name] {
		out[k] = v
	}
	return out
}

func (m *memCaches) matchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches
}

// fakeNetwork answers by path; unknown paths get 404. When down, every
// request fails with errOffline.
type fakeNetwork struct {
	mu     sync.Mutex
	down   bool
	routes map[string]func(*http.Request) (*http.Response, error)
	calls  []string
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{routes: map[string]func(*http.Request) (*http.Response, error){}}
}

func (n *fakeNetwork) handle(path string, status int, body string) {
	n.routes[path] = func(r *http.Request) (*http.Response, error) {
		return textResponse(r, status, body), nil
	}
}

func (n *fakeNetwork) setDown(down bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down = down
}

func (n *fakeNetwork) RoundTrip(r *http.Request) (*http.Response, error) {
	n.mu.Lock()
	n.calls = append(n.calls, r.Method+" "+r.URL.RequestURI())
	down := n.down
	h, ok := n.routes[r.URL.Path]
	n.mu.Unlock()

	if down {
		return nil, errOffline
	}
	if !ok {
		return textResponse(r, http.StatusNotFound, "not found"), nil
	}
	return h(r)
}

func textResponse(r *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Request:    r,
	}
}

// memQueue is an in-memory TaskQueue.
type memQueue struct {
	mu       sync.Mutex
	tasks    []*models.SyncTask
	attempts map[string]int
}

func newMemQueue(payloads ...string) *memQueue {
	q := &memQueue{attempts: map[string]int{}}
	for _, p := range payloads {
		_, _ = q.Enqueue(context.Background(), []byte(p))
	}
	return q
}

func (q *memQueue) Enqueue(_ context.Context, payload []byte) (*models.SyncTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &models.SyncTask{ID: string(payload), Payload: payload}
	q.tasks = append(q.tasks, t)
	return t, nil
}

func (q *memQueue) Pending(_ context.Context) ([]*models.SyncTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*models.SyncTask(nil), q.tasks...), nil
}

func (q *memQueue) MarkSynced(_ context.Context, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
	return nil
}

func (q *memQueue) MarkFailed(_ context.Context, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		q.attempts[id]++
	}
	return nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// fakeSender records payloads and fails the ones listed in fail.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (s *fakeSender) PostSync(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, string(payload))
	if s.fail[string(payload)] {
		return errors.New("unexpected status 500")
	}
	return nil
}

func (s *fakeSender) sentPayloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.sent...)
	sort.Strings(out)
	return out
}

func newTestWorker(name string, assets []string, net http.RoundTripper, caches CacheStore, q TaskQueue, s SyncSender) *Worker {
	cfg := Config{
		CacheName: name,
		BaseURL:   "http://app.test",
		Assets:    assets,
	}
	return New(cfg, net, caches, q, s, logging.Nop())
}

func mustGet(url string) *http.Request {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		panic(err)
	}
	return req
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
