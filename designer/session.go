package designer

import (
	"errors"
	"sync"
	"time"

	"talktrack-backend/formschema"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("designer: session not found")

// Session is one owner's editing session over a single form.
type Session struct {
	ID     uuid.UUID
	Owner  uuid.UUID
	FormID uint

	mu          sync.Mutex
	designer    *Designer
	coordinator *Coordinator
	lastUsed    time.Time
}

// Do runs fn with exclusive access to the session's designer and coordinator.
func (s *Session) Do(fn func(d *Designer, c *Coordinator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return fn(s.designer, s.coordinator)
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// Registry keeps open designer sessions in memory. Sessions that sit idle
// longer than the ttl are dropped by Sweep; unsaved edits go with them.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session), ttl: ttl}
}

// Open starts a session for formID seeded with its stored elements.
func (r *Registry) Open(owner uuid.UUID, formID uint, elements []formschema.Element) *Session {
	d := New(elements)
	s := &Session{
		ID:          uuid.New(),
		Owner:       owner,
		FormID:      formID,
		designer:    d,
		coordinator: NewCoordinator(d, DefaultActivationDistance, nil),
		lastUsed:    time.Now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session if it exists and belongs to owner.
func (r *Registry) Get(id, owner uuid.UUID) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Close(id, owner uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Owner != owner {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// CloseForm drops every session editing formID.
func (r *Registry) CloseForm(formID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.FormID == formID {
			delete(r.sessions, id)
		}
	}
}

// Sweep removes idle sessions and reports how many were dropped.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
