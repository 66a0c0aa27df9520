package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// install pre-caches every asset. Either all of them are stored or none.
func (w *Worker) install(ctx context.Context) error {
	if st := w.State(); st != StateInstalling {
		return fmt.Errorf("%w: install while %s", ErrInvalidState, st)
	}
	if w.cfg.InstallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.InstallTimeout)
		defer cancel()
	}

	created, err := w.caches.Open(ctx, w.cfg.CacheName)
	if err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("install %s: open cache: %w", w.cfg.CacheName, err)
	}

	err = w.precache(ctx)
	if err != nil {
		if created {
			if _, derr := w.caches.Delete(context.WithoutCancel(ctx), w.cfg.CacheName); derr != nil {
				w.logger.Error(ctx, "failed to remove cache of failed install", "error", derr)
			}
		}
		w.setState(StateRedundant)
		return fmt.Errorf("install %s: %w", w.cfg.CacheName, err)
	}

	w.setState(StateWaiting)
	w.logger.Info(ctx, "worker installed", "assets", len(w.cfg.Assets))
	return nil
}

func (w *Worker) precache(ctx context.Context) error {
	entries := make([]*models.CachedResponse, len(w.cfg.Assets))

	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range w.cfg.Assets {
		g.Go(func() error {
			e, err := w.fetchAsset(gctx, asset)
			if err != nil {
				return fmt.Errorf("asset %s: %w", asset, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return w.caches.PutAll(ctx, entries)
}

func (w *Worker) fetchAsset(ctx context.Context, asset string) (*models.CachedResponse, error) {
	target, err := w.resolve(asset)
	if err != nil {
		return nil, err
	}
	if w.cfg.NetworkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.NetworkTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s", ErrAssetStatus, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &models.CachedResponse{
		CacheName: w.cfg.CacheName,
		Key:       RequestKey(req),
		Method:    req.Method,
		URL:       req.URL.String(),
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      body,
		StoredAt:  time.Now(),
	}, nil
}

func (w *Worker) resolve(asset string) (string, error) {
	ref, err := url.Parse(asset)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() || w.cfg.BaseURL == "" {
		return ref.String(), nil
	}
	base, err := url.Parse(w.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// activate evicts every stale cache version, then takes control of the
// attached clients. A waiting worker moves to activating here; one that
// skipWaiting already moved there proceeds directly.
func (w *Worker) activate(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.activationRun:
		w.mu.Unlock()
		return nil
	case w.state == StateWaiting || w.state == StateActivating:
		w.state = StateActivating
		w.activationRun = true
	default:
		st := w.state
		w.mu.Unlock()
		return fmt.Errorf("%w: activate while %s", ErrInvalidState, st)
	}
	reg := w.reg
	w.mu.Unlock()

	if reg != nil {
		reg.beginActivation(w)
	}

	if err := w.evictStale(ctx); err != nil {
		w.setState(StateRedundant)
		if reg != nil {
			reg.activationFailed(w)
		}
		return fmt.Errorf("activate %s: %w", w.cfg.CacheName, err)
	}

	w.setState(StateActive)
	if reg != nil {
		reg.claim(w)
	}
	w.logger.Info(ctx, "worker activated")
	return nil
}

func (w *Worker) evictStale(ctx context.Context) error {
	names, err := w.caches.Names(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}

	var g errgroup.Group
	for _, name := range names {
		if name == w.cfg.CacheName {
			continue
		}
		g.Go(func() error {
			if _, err := w.caches.Delete(ctx, name); err != nil {
				return fmt.Errorf("delete cache %s: %w", name, err)
			}
			w.logger.Debug(ctx, "stale cache deleted", "stale", name)
			return nil
		})
	}
	return g.Wait()
}
