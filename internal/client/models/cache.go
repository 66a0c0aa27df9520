package models

import (
	"net/http"
	"time"
)

// CachedResponse is a stored HTTP response, addressed by cache name and
// request key.
type CachedResponse struct {
	CacheName string
	Key       string
	Method    string
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	StoredAt  time.Time
}
