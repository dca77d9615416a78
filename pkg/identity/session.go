package identity

import (
	"sync"
	"time"
)

// sessionState holds the single session owned by a backend instance plus
// its session-change listeners. Listener delivery is serialized so each
// callback observes a fully-applied change before the next fires.
type sessionState struct {
	mu      sync.Mutex
	session *Session

	subMu   sync.Mutex
	subs    map[int]func(*User)
	nextSub int

	notifyMu sync.Mutex
}

// current returns the session, or nil when signed out
func (s *sessionState) current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// set replaces the session wholesale and notifies listeners
func (s *sessionState) set(session *Session) {
	s.mu.Lock()
	s.session = session
	user := currentUser(session)
	s.mu.Unlock()
	s.notify(user)
}

// clear drops the session. Listeners are notified only when there was one,
// keeping sign-out idempotent.
func (s *sessionState) clear() {
	s.mu.Lock()
	hadSession := s.session != nil
	s.session = nil
	s.mu.Unlock()
	if hadSession {
		s.notify(nil)
	}
}

// updateToken applies a token refresh in place and returns the user for the
// follow-up notification. A nil return means the session vanished
// concurrently and no notification should fire.
func (s *sessionState) updateToken(idToken, refreshToken string, expiresAt time.Time) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, false
	}
	s.session.IDToken = idToken
	if refreshToken != "" {
		s.session.RefreshToken = refreshToken
	}
	s.session.ExpiresAt = expiresAt
	return s.session.User, true
}

// Subscribe registers a session-change listener and returns its removal
// function.
func (s *sessionState) Subscribe(fn func(user *User)) func() {
	s.subMu.Lock()
	if s.subs == nil {
		s.subs = map[int]func(*User){}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify delivers a session change to all listeners in delivery order
func (s *sessionState) notify(user *User) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.subMu.Lock()
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// currentUser extracts the user from a possibly-nil session
func currentUser(session *Session) *User {
	if session == nil {
		return nil
	}
	return session.User
}
