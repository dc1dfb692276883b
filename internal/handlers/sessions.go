package handlers

import (
	"sync"
)

// sessionLock serializes edits to one itinerary
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// SessionLocks hands out one mutex per session id so a read-modify-write of
// an itinerary never interleaves with another edit of the same session.
// Entries are dropped once no request holds or waits for them.
type SessionLocks struct {
	locks map[string]*sessionLock
	mu    sync.Mutex
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session is free and returns its unlock function
func (s *SessionLocks) Lock(id string) func() {
	s.mu.Lock()
	l := s.locks[id]
	if l == nil {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Len reports the number of sessions currently locked or awaited
func (s *SessionLocks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
