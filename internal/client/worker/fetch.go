package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
)

// RequestKey identifies a cached response: the method and the full URL
// with its query string. The fragment is not part of the key and request
// headers are ignored.
func RequestKey(req *http.Request) string {
	u := *req.URL
	u.Fragment = ""
	u.RawFragment = ""
	return req.Method + " " + u.String()
}

// fetch answers req network-first. Any HTTP response counts as success and,
// for GET, is copied into the current cache in the background. When the
// network fails a GET is answered from the cache; on a miss, for any other
// method, or when the caller cancelled the request, the transport error is
// returned as is.
func (w *Worker) fetch(req *http.Request) (*http.Response, error) {
	resp, body, err := w.roundTrip(req)
	if err == nil {
		if req.Method == http.MethodGet {
			w.storeInBackground(req, resp, body)
		}
		return resp, nil
	}

	if req.Method != http.MethodGet || req.Context().Err() != nil {
		return nil, err
	}

	cached, cerr := w.caches.Match(req.Context(), w.cfg.CacheName, RequestKey(req))
	if cerr != nil {
		if !errors.Is(cerr, common.ErrorNotFound) {
			w.logger.Warn(req.Context(), "cache lookup failed", "key", RequestKey(req), "error", cerr)
		}
		return nil, err
	}
	w.logger.Debug(req.Context(), "served from cache", "key", cached.Key)
	return fromCache(req, cached), nil
}

// roundTrip sends req with the network timeout applied and buffers the body,
// so the timeout cannot cut off a caller still reading it.
func (w *Worker) roundTrip(req *http.Request) (*http.Response, []byte, error) {
	ctx := req.Context()
	if w.cfg.NetworkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.NetworkTimeout)
		defer cancel()
	}

	resp, err := w.network.RoundTrip(req.Clone(ctx))
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Request = req
	return resp, body, nil
}

func (w *Worker) storeInBackground(req *http.Request, resp *http.Response, body []byte) {
	entry := &models.CachedResponse{
		CacheName: w.cfg.CacheName,
		Key:       RequestKey(req),
		Method:    req.Method,
		URL:       req.URL.String(),
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      append([]byte(nil), body...),
		StoredAt:  time.Now(),
	}
	w.tasks.Go("cache put "+entry.Key, func(ctx context.Context) error {
		err := w.caches.Put(ctx, entry)
		if errors.Is(err, common.ErrorNotFound) {
			// evicted by a newer worker while the write was in flight
			w.logger.Debug(ctx, "cache gone, response dropped", "key", entry.Key)
			return nil
		}
		return err
	})
}

func fromCache(req *http.Request, e *models.CachedResponse) *http.Response {
	h := e.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(common.CacheStatusHeader, common.CacheStatusHit)
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
