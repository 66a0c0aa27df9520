// Package worker implements the client's offline layer: a process-wide
// worker that pre-caches the app shell, answers HTTP requests
// network-first with a cache fallback, and replays queued offline writes
// when connectivity returns.
//
// # Lifecycle
//
// A Worker moves through installing, waiting, activating and active.
// Install fetches every configured asset and stores all of them in the
// worker's cache version atomically. Activate deletes every other cache
// version and then claims the attached clients. A failed install or
// activation leaves the worker redundant; a newer worker that activates
// makes the previous one redundant too.
//
// Registration plays the role of the hosting platform. It installs
// registered workers, decides when a waiting worker may activate, and
// routes requests from attached clients to the active worker.
//
// # Events
//
// Every entry point is an Event dispatched through a table keyed by
// EventKind: install, activate, fetch, message and sync.
//
// # Tasks
//
// Work that the caller does not wait for (cache writes after a network
// response, activation triggered by skipWaiting) runs on a TaskGroup whose
// failures are logged. Work the caller joins (asset fetches, cache
// eviction, a sync batch) uses errgroup.
package worker
