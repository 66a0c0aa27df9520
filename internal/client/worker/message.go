package worker

import (
	"context"
	"encoding/json"
)

// ActionSkipWaiting lets a waiting worker activate without waiting for the
// current clients to go away.
const ActionSkipWaiting = "skipWaiting"

// Message is the envelope posted to a worker.
type Message struct {
	Action string `json:"action"`
}

// handleMessage acts on a posted message. Anything it does not understand
// is dropped. There is no reply.
func (w *Worker) handleMessage(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		w.logger.Debug(ctx, "ignoring malformed message", "error", err)
		return
	}

	switch msg.Action {
	case ActionSkipWaiting:
		w.skipWaiting(ctx)
	default:
		w.logger.Debug(ctx, "ignoring message", "action", msg.Action)
	}
}

// skipWaiting moves a waiting worker to activating before returning and
// runs the activation itself as a detached task.
func (w *Worker) skipWaiting(ctx context.Context) {
	w.mu.Lock()
	if w.state != StateWaiting {
		st := w.state
		w.mu.Unlock()
		w.logger.Debug(ctx, "skipWaiting ignored", "state", st.String())
		return
	}
	w.state = StateActivating
	w.mu.Unlock()
	w.logger.Debug(ctx, "worker state changed", "from", StateWaiting.String(), "to", StateActivating.String())

	w.tasks.Go("activate", func(ctx context.Context) error {
		_, err := w.Dispatch(ctx, Event{Kind: EventActivate})
		return err
	})
}
