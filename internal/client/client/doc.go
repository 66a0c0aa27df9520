// Package client contains the client-side transports to the DeepNote
// backend and the local database bootstrap.
//
// # Overview
//
//  1. GRPCClient talks to deepnote.NoteService: auth, note mutations,
//     ownership lookups and presigned audio URLs. An interceptor injects the
//     access token and transparently refreshes it once when the server
//     reports it expired.
//  2. RESTClient talks to the HTTP API: the note listing (sent through the
//     worker-controlled transport, so it can be served from cache) and the
//     sync endpoint used to replay queued offline writes.
//  3. InitDatabase opens the local SQLite file and applies the embedded
//     goose migrations.
//
// Both transports share one Credentials value.
//
// # Error Handling
//
// gRPC status codes and HTTP statuses are mapped to sentinel errors:
// ErrUnavailable for an unreachable server, and the common package errors
// (ErrUnauthenticated, ErrorUnauthorized, ErrorNotFound, ErrValidation) for
// the rest. Callers match them with errors.Is.
package client
