package models

import "time"

// SyncTask is a queued offline write. Payload is opaque to the queue.
// UserID is the account that queued it; only that account replays it.
type SyncTask struct {
	ID        string
	UserID    string
	Payload   []byte
	CreatedAt time.Time
	Attempts  int
}
