// internal/store/memory.go
//
// In-memory session store.
// Each browser session owns one game.Machine. The machine is not
// goroutine-safe, so every access goes through Session.Do, which holds the
// session's own mutex; the map itself is guarded by an RWMutex.
//
// Characteristics:
//   - Sessions are keyed by ID.
//   - Idle sessions are dropped by Prune.
//   - State is lost when the process restarts (history survives in sqlite).

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/firstlight/internal/game"
)

// ErrNotFound is returned by Get for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Session is one player's game.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	lastSeen time.Time
	machine  *game.Machine
}

// NewSession wraps m.
func NewSession(id string, m *game.Machine, now time.Time) *Session {
	return &Session{ID: id, Created: now, lastSeen: now, machine: m}
}

// Do runs fn with exclusive access to the machine.
func (s *Session) Do(fn func(m *game.Machine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.machine)
}

// LastSeen is the last time the session was fetched.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Store defines the persistence interface for sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session and marks it as seen.
	// Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete drops a session. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Len is the number of live sessions.
	Len() int

	// Prune drops sessions idle since before cutoff and returns how many.
	Prune(cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session), now: time.Now}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
