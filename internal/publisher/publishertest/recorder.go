// Package publishertest records harvest notifications in the form the
// Pub/Sub publisher puts on the wire.
package publishertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Notification is one accepted publish.
type Notification struct {
	ID    string
	Event string
	Data  json.RawMessage
}

// Decode unmarshals the notification body into v.
func (n Notification) Decode(v any) error {
	return json.Unmarshal(n.Data, v)
}

// Recorder implements harvest.Publisher in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// FailWith makes every later Publish return err. nil restores delivery.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish encodes payload as JSON and records it under event.
func (r *Recorder) Publish(ctx context.Context, event string, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	n := Notification{ID: uuid.NewString(), Event: event, Data: data}
	r.sent = append(r.sent, n)
	return n.ID, nil
}

// Notifications returns the recorded notifications for event in publish
// order. An empty event matches all of them.
func (r *Recorder) Notifications(event string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if event == "" || n.Event == event {
			out = append(out, n)
		}
	}
	return out
}
