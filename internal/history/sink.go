// internal/history/sink.go
//
// event.Sink that persists a session's events and records a run when the
// session reaches the end-game. Writes go through the Writer queue and are
// best effort: failures are logged and dropped so play never blocks on the
// database.

package history

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/firstlight/internal/event"
)

// Sink writes one session's events through a Writer.
type Sink struct {
	w         *Writer
	sessionID string
	now       func() time.Time

	mu          sync.Mutex
	start       time.Time
	assignments int
}

// NewSink queues the session row and returns its sink. Debug events are
// not persisted.
func NewSink(w *Writer, sessionID string, start time.Time) *Sink {
	st := w.store
	w.enqueue("start_session", func(ctx context.Context) error {
		return st.StartSession(ctx, sessionID, start)
	})
	return &Sink{w: w, sessionID: sessionID, now: time.Now, start: start}
}

// Emit implements event.Sink.
func (s *Sink) Emit(e event.Event) {
	s.mu.Lock()
	var run *Run
	switch e.Kind {
	case event.MeaningAssigned:
		s.assignments++
	case event.GameReset:
		s.start = s.now()
		s.assignments = 0
	case event.EndGame:
		run = &Run{
			SessionID:     s.sessionID,
			ElapsedMs:     s.now().Sub(s.start).Milliseconds(),
			Assignments:   s.assignments,
			Transmissions: e.Count,
		}
	}
	s.mu.Unlock()

	st, sid := s.w.store, s.sessionID
	if e.Level > event.LevelDebug {
		s.w.enqueue(string(e.Kind), func(ctx context.Context) error {
			return st.RecordEvent(ctx, sid, e)
		})
	}
	if run != nil {
		r := *run
		s.w.enqueue("insert_run", func(ctx context.Context) error {
			return st.InsertRun(ctx, r)
		})
	}
}
