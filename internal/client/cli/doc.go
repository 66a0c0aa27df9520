// Package cli provides the interactive DeepNote command-line client.
//
// It wires configuration, the local database, the remote clients, the
// offline worker and the note store behind a small REPL. Typical flow:
// register the worker, prompt for credentials (online login with an
// offline fallback), start the connectivity watcher, then run commands.
//
// While the server is unreachable, note listings come from the worker's
// cache and changes are queued; the watcher replays the queue when the
// server comes back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
