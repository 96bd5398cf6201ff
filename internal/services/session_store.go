package services

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portalpals/backend/internal/catalog"
)

// cardCount is the number of face-down cards in a memory round.
const cardCount = 3

// MemorySession is one in-flight memory game round. The correct position
// lives only here, server-side; it is never written to the start response.
type MemorySession struct {
	ID              string
	UserID          int
	Character       catalog.Character
	CorrectPosition int
	CreatedAt       time.Time
	consumed        bool
}

// SessionStore is the process-local registry of active memory sessions and
// the single authority on whether a guess is legitimate. Sessions are not
// persisted: a restart discards open rounds, which are lost, not refunded.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*MemorySession
	maxAge   time.Duration
	now      func() time.Time
}

func NewSessionStore(maxAge time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*MemorySession),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Create registers a new session with a fresh id and a uniformly random
// correct position. Expired sessions are swept opportunistically so the
// map cannot grow without bound between scheduled sweeps.
func (s *SessionStore) Create(userID int, character *catalog.Character) *MemorySession {
	session := &MemorySession{
		ID:              uuid.New().String(),
		UserID:          userID,
		Character:       *character,
		CorrectPosition: rand.Intn(cardCount),
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	s.sweepLocked()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Consume atomically marks a session consumed and returns it exactly once.
// Any later call for the same id fails with ErrAlreadyConsumed, so a round
// can never pay out twice.
func (s *SessionStore) Consume(sessionID string, userID int) (*MemorySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.now().Sub(session.CreatedAt) > s.maxAge {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrNotOwner
	}
	if session.consumed {
		return nil, ErrAlreadyConsumed
	}

	session.consumed = true
	copied := *session
	return &copied, nil
}

// SweepExpired removes sessions older than the store's max age regardless
// of consumption state, and returns how many were removed.
func (s *SessionStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *SessionStore) sweepLocked() int {
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[SESSIONS] Swept %d expired memory sessions", removed)
	}
	return removed
}

// Len reports the number of tracked sessions, consumed or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
