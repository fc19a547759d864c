package progress

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrStreamClosed is returned by Stream.Emit after a terminal event.
var ErrStreamClosed = errors.New("progress stream already terminated")

// Stream is the ordered event sequence of one harvest. It stamps each event
// with the run id and time, forwards it synchronously to every target in
// order, and accepts exactly one terminal event (complete or error).
type Stream struct {
	mu       sync.Mutex
	runID    uuid.UUID
	now      func() time.Time
	targets  []Emitter
	terminal bool
	seq      []Type
}

// NewStream creates a Stream for runID. A nil now uses time.Now.
func NewStream(runID uuid.UUID, now func() time.Time, targets ...Emitter) *Stream {
	if now == nil {
		now = time.Now
	}
	kept := make([]Emitter, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Stream{runID: runID, now: now, targets: kept}
}

// RunID returns the run the stream belongs to.
func (s *Stream) RunID() uuid.UUID { return s.runID }

// Emit stamps evt and forwards it. After a terminal event every call returns
// ErrStreamClosed and nothing is forwarded.
func (s *Stream) Emit(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return ErrStreamClosed
	}
	evt.RunID = s.runID
	if evt.TS.IsZero() {
		evt.TS = s.now().UTC()
	}
	if err := evt.Validate(); err != nil {
		return err
	}
	s.terminal = evt.Terminal()
	s.seq = append(s.seq, evt.Type)
	for _, t := range s.targets {
		t.Emit(evt)
	}
	return nil
}

// Done reports whether a terminal event was emitted.
func (s *Stream) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

// Types returns the types emitted so far, in order.
func (s *Stream) Types() []Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Type(nil), s.seq...)
}
