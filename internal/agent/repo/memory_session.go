package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carbon-assistant/server/internal/agent/model"
	errx "github.com/carbon-assistant/server/internal/core/error"
)

type sessionEntry struct {
	session   *model.Session
	touchedAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Entries idle for
// longer than ttl are dropped; a ttl of 0 keeps them forever.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemorySessionStore) Create(_ context.Context) (string, error) {
	now := s.now()
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	s.sessions[id] = &sessionEntry{
		session:   &model.Session{ID: id, CreatedAt: now, UpdatedAt: now},
		touchedAt: now,
	}
	return id, nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

func (s *MemorySessionStore) Update(_ context.Context, sessionID string, slot model.Slot, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(sessionID)
	if err != nil {
		return err
	}

	// apply on a copy so a rejected value leaves the stored session intact
	next := e.session.Clone()
	if err := next.Apply(slot, value); err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	next.UpdatedAt = e.touchedAt
	e.session = next
	return nil
}

// Len returns the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.sessions)
}

func (s *MemorySessionStore) lookupLocked(sessionID string) (*sessionEntry, error) {
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, errx.SessionNotFound(sessionID)
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, sessionID)
		return nil, errx.SessionNotFound(sessionID)
	}
	e.touchedAt = now
	return e, nil
}

func (s *MemorySessionStore) sweepLocked(now time.Time) {
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemorySessionStore) expired(e *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touchedAt) > s.ttl
}

var _ model.SessionStore = (*MemorySessionStore)(nil)
