package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
)

// Refresher rotates the session tokens.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RESTClient calls the HTTP part of the backend with the session's bearer
// token. A 401 triggers one token refresh and one retry.
type RESTClient struct {
	baseURL   string
	http      *http.Client
	creds     *Credentials
	refresher Refresher
}

// NewRESTClient builds a client that sends requests through transport
// (normally the worker-controlled one).
func NewRESTClient(baseURL string, transport http.RoundTripper, creds *Credentials, refresher Refresher) *RESTClient {
	return &RESTClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Transport: transport},
		creds:     creds,
		refresher: refresher,
	}
}

type errorEnvelope struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ListNotes returns the acting user's notes. fromCache reports that the
// response came from the offline cache rather than the server.
func (c *RESTClient) ListNotes(ctx context.Context, archived bool) (notes []*models.Note, fromCache bool, err error) {
	path := common.NotesEndpointPath
	if archived {
		path += "?" + url.Values{"archived": {"true"}}.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, false, fmt.Errorf("decode notes: %w", err)
	}
	return notes, resp.Header.Get(common.CacheStatusHeader) == common.CacheStatusHit, nil
}

// PostSync replays one queued payload. Any non-2xx answer is an error.
func (c *RESTClient) PostSync(ctx context.Context, payload []byte) error {
	resp, err := c.do(ctx, http.MethodPost, common.SyncEndpointPath, payload)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *RESTClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && c.refresher != nil && c.creds.RefreshToken() != "" {
		resp.Body.Close()
		if rerr := c.refresher.Refresh(ctx); rerr != nil {
			return nil, rerr
		}
		if resp, err = c.send(ctx, method, path, body); err != nil {
			return nil, err
		}
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func (c *RESTClient) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.creds.AccessToken(); token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	var env errorEnvelope
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&env)
	msg := env.Message
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, msg)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrValidation, msg)
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}
