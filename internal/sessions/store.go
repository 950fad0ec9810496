package sessions

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinavi-labs/vinavi/internal/exercise"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the session state interface.
type Store interface {
	Create(mode Mode) (*Session, error)
	Get(id string) (*Session, error)
	List() []Summary
	Update(id string, fn func(s *Session) error) (*Session, error)
	Delete(id string) error
}

// MemoryStore keeps sessions in a mutex-guarded map. Every read returns a copy.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), now: time.Now}
}

func generateSessionID() string {
	u := uuid.New().String()
	return "sess_" + strings.ReplaceAll(u[:8], "-", "")
}

// Create starts a session in the given mode.
func (ms *MemoryStore) Create(mode Mode) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	s := &Session{
		ID:        generateSessionID(),
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
		Exercise:  ExerciseState{State: exercise.StateNotStarted},
	}
	ms.sessions[s.ID] = s
	return s.Clone(), nil
}

// Get returns a copy of a session.
func (ms *MemoryStore) Get(id string) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// List returns session summaries sorted by UpdatedAt descending.
func (ms *MemoryStore) List() []Summary {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Summary, 0, len(ms.sessions))
	for _, s := range ms.sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Update applies fn to a copy of the session and commits it when fn
// returns nil. A failing fn leaves the stored session untouched.
func (ms *MemoryStore) Update(id string, fn func(s *Session) error) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cur, ok := ms.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return cur.Clone(), err
	}
	next.UpdatedAt = ms.now()
	ms.sessions[id] = next
	return next.Clone(), nil
}

// Delete removes a session.
func (ms *MemoryStore) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(ms.sessions, id)
	return nil
}

// ProcessingTimeout is how long a call in flight keeps a session from
// eviction. A flag older than this is considered abandoned.
const ProcessingTimeout = 10 * time.Minute

// EvictIdle removes sessions untouched for longer than ttl, skipping those
// with a call in flight for less than ProcessingTimeout. It returns the
// evicted sessions.
func (ms *MemoryStore) EvictIdle(ttl time.Duration) []*Session {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	cutoff := now.Add(-ttl)
	var evicted []*Session
	for id, s := range ms.sessions {
		if !s.UpdatedAt.Before(cutoff) {
			continue
		}
		if s.Processing && now.Sub(s.UpdatedAt) < ProcessingTimeout {
			continue
		}
		evicted = append(evicted, s)
		delete(ms.sessions, id)
	}
	return evicted
}
