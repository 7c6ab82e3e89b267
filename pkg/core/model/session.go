package model

import "fmt"

type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionAuthenticated
	SessionPendingExit
)

func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	case SessionPendingExit:
		return "pending-exit"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session carries the caller's login state through each operation.
// Lifecycle: anonymous -> authenticated -> pending-exit -> anonymous, with
// CancelExit returning pending-exit to authenticated.
type Session struct {
	state    SessionState
	identity Identity
}

// NewSession returns an anonymous session
func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() SessionState {
	return s.state
}

// Identity returns the logged-in identity, or the zero value when anonymous
func (s *Session) Identity() Identity {
	return s.identity
}

// Login moves an anonymous session to authenticated
func (s *Session) Login(identity Identity) error {
	if s.state != SessionAnonymous {
		return fmt.Errorf("cannot log in from state %s", s.state)
	}
	s.state = SessionAuthenticated
	s.identity = identity
	return nil
}

// RequestExit asks for confirmation before logging out
func (s *Session) RequestExit() error {
	if s.state != SessionAuthenticated {
		return fmt.Errorf("cannot request exit from state %s", s.state)
	}
	s.state = SessionPendingExit
	return nil
}

// ConfirmExit clears the identity and returns the session to anonymous
func (s *Session) ConfirmExit() error {
	if s.state != SessionPendingExit {
		return fmt.Errorf("cannot confirm exit from state %s", s.state)
	}
	s.state = SessionAnonymous
	s.identity = Identity{}
	return nil
}

// CancelExit keeps the user logged in
func (s *Session) CancelExit() error {
	if s.state != SessionPendingExit {
		return fmt.Errorf("cannot cancel exit from state %s", s.state)
	}
	s.state = SessionAuthenticated
	return nil
}

// RequireAuthenticated returns the identity of a logged-in session.
// A session waiting for exit confirmation still counts as logged in.
func (s *Session) RequireAuthenticated() (Identity, error) {
	if s.state == SessionAnonymous {
		return Identity{}, ErrUnauthorized
	}
	return s.identity, nil
}

// RequireAdmin is RequireAuthenticated restricted to the admin role
func (s *Session) RequireAdmin() (Identity, error) {
	identity, err := s.RequireAuthenticated()
	if err != nil {
		return Identity{}, err
	}
	if !identity.IsAdmin() {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}
