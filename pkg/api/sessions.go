package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
)

type sessionEntry struct {
	session  *model.Session
	lastSeen time.Time
}

// SessionStore keeps login sessions in memory, keyed by bearer token.
// A session unused for longer than idle is dropped; idle <= 0 keeps
// sessions until logout.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
	idle     time.Duration
	now      func() time.Time
}

func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*sessionEntry),
		idle:     idle,
		now:      time.Now,
	}
}

// Create logs identity in under a fresh random token
func (s *SessionStore) Create(identity model.Identity) (uuid.UUID, error) {
	session := model.NewSession()
	if err := session.Login(identity); err != nil {
		return uuid.Nil, err
	}
	token, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.sessions[token] = &sessionEntry{session: session, lastSeen: now}
	return token, nil
}

// Do runs fn on the token's session while holding the store lock.
// An unknown or expired token gets an anonymous session that is not stored.
func (s *SessionStore) Do(token uuid.UUID, fn func(*model.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.sessions[token]
	if ok && s.expired(entry, now) {
		delete(s.sessions, token)
		ok = false
	}

	session := model.NewSession()
	if ok {
		session = entry.session
		entry.lastSeen = now
	}
	if err := fn(session); err != nil {
		return err
	}
	if ok && session.State() == model.SessionAnonymous {
		delete(s.sessions, token)
	}
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.now())
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.idle > 0 && now.Sub(entry.lastSeen) >= s.idle
}

// sweep drops expired sessions. Callers hold mu.
func (s *SessionStore) sweep(now time.Time) {
	for token, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, token)
		}
	}
}
