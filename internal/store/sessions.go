// Package store holds the process-wide state of the engine: the authenticated session
// of every user and the per-user cache of scraped data.
package store

import (
	"maps"
	"sync"
	"time"

	"smartx-backend/internal/scrapers/samvidha"
)

// Session is the authenticated state of a single user.
type Session struct {
	UserId    string
	Cookies   samvidha.CookieSet
	CreatedAt time.Time
}

// Same returns true if both sessions come from the same login.
func (s Session) Same(other Session) bool {
	return s.UserId == other.UserId &&
		s.CreatedAt.Equal(other.CreatedAt) &&
		maps.Equal(s.Cookies, other.Cookies)
}

// SessionStore maps a user id to its session, at most one session exists per user.
//
// note: fault injection point
type SessionStore interface {
	Get(userId string) (Session, bool)
	// Put replaces any existing session of the same user.
	Put(session Session)
	Delete(userId string)
}

// MemorySessions is a SessionStore that lives for as long as the process.
type MemorySessions struct {
	mutex    sync.RWMutex
	sessions map[string]Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: map[string]Session{}}
}

func (m *MemorySessions) Get(userId string) (Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, ok := m.sessions[userId]
	return session, ok
}

func (m *MemorySessions) Put(session Session) {
	cookies := make(samvidha.CookieSet, len(session.Cookies))
	for name, value := range session.Cookies {
		cookies[name] = value
	}
	session.Cookies = cookies

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.UserId] = session
}

func (m *MemorySessions) Delete(userId string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, userId)
}
