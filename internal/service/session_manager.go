package service

import (
	"sync"
	"time"
)

// SessionManager keeps one live quiz session per identity.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*QuizSession
	maxIdle  time.Duration
}

// NewSessionManager creates a session manager. Sessions idle for longer
// than maxIdle are dropped when new sessions are stored; 0 keeps them forever.
func NewSessionManager(maxIdle time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*QuizSession),
		maxIdle:  maxIdle,
	}
}

// Get returns the session stored under key.
func (m *SessionManager) Get(key string) (*QuizSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	return session, ok
}

// Put stores session under key, replacing any previous one.
func (m *SessionManager) Put(key string, session *QuizSession, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxIdle > 0 {
		for k, s := range m.sessions {
			if now.Sub(s.LastActivity()) > m.maxIdle {
				delete(m.sessions, k)
			}
		}
	}
	m.sessions[key] = session
}

// Delete removes the session stored under key.
func (m *SessionManager) Delete(key string) {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
