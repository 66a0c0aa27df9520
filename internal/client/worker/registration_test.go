package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration_FirstWorkerActivatesAndControlsClients(t *testing.T) {
	net := newFakeNetwork()
	net.handle("/", 200, "shell")
	caches := newMemCaches()
	reg := NewRegistration(net, logging.Nop())
	c := reg.Attach()
	assert.Nil(t, c.Controller())

	w := newTestWorker("v1", []string{"/"}, net, caches, newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(context.Background(), w))

	assert.Same(t, w, reg.Active())
	assert.Nil(t, reg.Waiting())
	assert.Same(t, w, c.Controller())
}

func TestRegistration_UpdateWaitsForClientsToGo(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork()
	caches := newMemCaches()
	reg := NewRegistration(net, logging.Nop())

	v1 := newTestWorker("v1", nil, net, caches, newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, v1))
	c := reg.Attach()
	assert.Same(t, v1, c.Controller())

	v2 := newTestWorker("v2", nil, net, caches, newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, v2))
	assert.Same(t, v1, reg.Active())
	assert.Same(t, v2, reg.Waiting())
	assert.Equal(t, StateWaiting, v2.State())

	require.NoError(t, c.Release(ctx))
	assert.Same(t, v2, reg.Active())
	assert.Equal(t, StateRedundant, v1.State())
	names, _ := caches.Names(ctx)
	assert.Equal(t, []string{"v2"}, names)
}

func TestRegistration_SkipWaitingClaimsAttachedClients(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork()
	reg := NewRegistration(net, logging.Nop())

	v1 := newTestWorker("v1", nil, net, newMemCaches(), newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, v1))
	c := reg.Attach()

	v2 := newTestWorker("v2", nil, net, newMemCaches(), newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, v2))

	require.NoError(t, reg.PostMessage(ctx, Message{Action: ActionSkipWaiting}))
	reg.Wait()
	v2.Wait()

	assert.Same(t, v2, reg.Active())
	assert.Same(t, v2, c.Controller())
	assert.Equal(t, StateRedundant, v1.State())
}

func TestRegistration_FailedInstallKeepsCurrentWorker(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork()
	reg := NewRegistration(net, logging.Nop())

	v1 := newTestWorker("v1", nil, net, newMemCaches(), newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, v1))

	net.handle("/broken", 500, "")
	v2 := newTestWorker("v2", []string{"/broken"}, net, newMemCaches(), newMemQueue(), &fakeSender{})
	require.Error(t, reg.Register(ctx, v2))

	assert.Same(t, v1, reg.Active())
	assert.Nil(t, reg.Waiting())
	assert.Equal(t, StateActive, v1.State())
}

func TestRegistration_TransportRoutesThroughController(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork()
	net.handle("/api/notes", 200, "[]")
	caches := newMemCaches()
	reg := NewRegistration(net, logging.Nop())
	c := reg.Attach()
	hc := &http.Client{Transport: c.Transport()}

	resp, err := hc.Get("http://app.test/api/notes")
	require.NoError(t, err)
	readBody(resp)

	w := newTestWorker("v1", nil, net, caches, newMemQueue(), &fakeSender{})
	require.NoError(t, reg.Register(ctx, w))
	resp, err = hc.Get("http://app.test/api/notes")
	require.NoError(t, err)
	readBody(resp)
	reg.Wait()
	assert.Len(t, caches.entries("v1"), 1, "only the controlled request is cached")

	net.setDown(true)
	resp, err = hc.Get("http://app.test/api/notes")
	require.NoError(t, err)
	assert.Equal(t, "[]", readBody(resp))

	require.NoError(t, c.Release(ctx))
	assert.Nil(t, c.Controller())
}

func TestRegistration_SyncWithoutActiveWorker(t *testing.T) {
	reg := NewRegistration(newFakeNetwork(), logging.Nop())
	assert.ErrorIs(t, reg.Sync(context.Background(), "sync-notes"), ErrNoActiveWorker)
	assert.ErrorIs(t, reg.PostRaw(context.Background(), []byte(`{}`)), ErrNoActiveWorker)
}

type scriptedPinger struct {
	results []error
	i       int
}

func (p *scriptedPinger) Ping(context.Context) error {
	err := p.results[p.i]
	p.i++
	return err
}

func TestOnlineWatcher_RaisesOnEveryRecovery(t *testing.T) {
	down := errors.New("down")
	p := &scriptedPinger{results: []error{nil, nil, down, down, nil}}
	o := NewOnlineWatcher(p, time.Second, logging.Nop())
	var recovered, lost int
	o.OnOnline = func(context.Context) { recovered++ }
	o.OnOffline = func(context.Context) { lost++ }

	want := []bool{true, true, false, false, true}
	for i, w := range want {
		assert.Equal(t, w, o.Check(context.Background()), "probe %d", i)
	}
	assert.Equal(t, 2, recovered)
	assert.Equal(t, 1, lost)
	assert.True(t, o.Online())
}
