// Package common contains shared constants and sentinel errors used across
// DeepNote components.
package common

const (
	// AccessTokenHeaderName is the gRPC metadata key used to carry the
	// access token on outbound requests.
	AccessTokenHeaderName = "access_token"

	// AuthorizationHeader carries "Bearer <access token>" on HTTP requests.
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the token in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// SyncTagNotes names the background task that flushes offline note writes.
	SyncTagNotes = "sync-notes"

	// SyncEndpointPath accepts one pending task payload per POST.
	SyncEndpointPath = "/api/sync"

	// NotesEndpointPath lists the acting user's notes.
	NotesEndpointPath = "/api/notes"
)

const (
	// CacheStatusHeader is set to CacheStatusHit on responses the client
	// served from its offline cache.
	CacheStatusHeader = "X-Deepnote-Cache"
	CacheStatusHit    = "hit"
)
