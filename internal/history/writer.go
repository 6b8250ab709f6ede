// internal/history/writer.go
//
// Background writer for the history store.
// Sessions hand their writes to one goroutine through a buffered queue, so
// a game command never waits on sqlite while holding its session lock.
//
// Characteristics:
//   - Writes run in queue order (a session row is written before its events).
//   - A full queue drops the write and logs it; play is never blocked.
//   - Flush waits for everything queued before it; reads flush first so a
//     caller sees its own writes.
//   - Close drains the queue and stops the goroutine. Later writes are dropped.

package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultQueue is the queue length used when NewWriter is given 0.
const DefaultQueue = 1024

const writeTimeout = 2 * time.Second

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("history writer closed")

type job struct {
	name  string
	write func(ctx context.Context) error
	done  chan struct{} // flush marker when non-nil
}

// Writer serializes writes to a Store on a single goroutine.
type Writer struct {
	store *Store
	jobs  chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWriter starts the writer goroutine over st.
func NewWriter(st *Store, queue int) *Writer {
	if queue <= 0 {
		queue = DefaultQueue
	}
	w := &Writer{store: st, jobs: make(chan job, queue)}
	w.wg.Add(1)
	go w.run()
	return w
}

// Store is the underlying store.
func (w *Writer) Store() *Store { return w.store }

func (w *Writer) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		if j.done != nil {
			close(j.done)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := j.write(ctx); err != nil {
			log.Warn().Err(err).Str("write", j.name).Msg("history: write failed")
		}
		cancel()
	}
}

// enqueue queues a write without blocking. It reports whether the write
// was accepted.
func (w *Writer) enqueue(name string, fn func(ctx context.Context) error) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		log.Warn().Str("write", name).Msg("history: writer closed, write dropped")
		return false
	}
	select {
	case w.jobs <- job{name: name, write: fn}:
		return true
	default:
		log.Warn().Str("write", name).Int("queue", cap(w.jobs)).Msg("history: queue full, write dropped")
		return false
	}
}

// Flush waits until every write queued before the call has run.
func (w *Writer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrClosed
	}
	select {
	case w.jobs <- job{name: "flush", done: done}:
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}
	w.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued writes and stops the goroutine. It does not close
// the store.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

// Leaderboard flushes pending writes, then reads the leaderboard.
func (w *Writer) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if err := w.Flush(ctx); err != nil && !errors.Is(err, ErrClosed) {
		return nil, err
	}
	return w.store.Leaderboard(ctx, limit)
}

// Events flushes pending writes, then reads a session's events.
func (w *Writer) Events(ctx context.Context, sessionID string, limit int) ([]EventRow, error) {
	if err := w.Flush(ctx); err != nil && !errors.Is(err, ErrClosed) {
		return nil, err
	}
	return w.store.Events(ctx, sessionID, limit)
}
