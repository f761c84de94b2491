// Package session provides conversation session management for the query
// router. A session records the resolutions of one user's conversation and
// the most recently extracted parameter values, so a follow-up query can
// reuse context the user already supplied ("那重庆工厂呢" after asking
// about inventory).
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"nlq-router/internal/engine"
)

// Manager manages multiple chat sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// Session represents one user's conversation with accumulated context
type Session struct {
	SessionID string
	History   []Turn
	Params    map[string]string // last successfully extracted parameter values
	CreatedAt time.Time
	LastUsed  time.Time
	mu        sync.RWMutex
}

// Turn represents a single query/answer exchange in the conversation
type Turn struct {
	Query     string
	Status    engine.Status
	RuleName  string
	Answer    string
	Timestamp time.Time
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID != "" {
		if session, exists := m.sessions[sessionID]; exists {
			session.touch()
			return session
		}
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	session := &Session{
		SessionID: sessionID,
		History:   make([]Turn, 0),
		Params:    make(map[string]string),
		CreatedAt: time.Now(),
		LastUsed:  time.Now(),
	}
	m.sessions[sessionID] = session
	return session
}

// Get retrieves an existing session
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	session.touch()
	return session, nil
}

// Delete removes a session
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	delete(m.sessions, sessionID)
	return nil
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle longer than maxAge and returns how
// many were removed.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range m.sessions {
		if now.Sub(session.lastUsed()) > maxAge {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Session Methods

// Record appends one resolution to the session history and folds its
// extracted parameters into the carry-over context. Only successful
// extractions stick; a clarification turn never erases earlier context.
func (s *Session) Record(query string, res *engine.Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{
		Query:     query,
		Status:    res.Status,
		Answer:    res.Text,
		Timestamp: time.Now(),
	}
	if res.Rule != nil {
		turn.RuleName = res.Rule.Name
	}
	s.History = append(s.History, turn)

	for name, value := range res.Parameters {
		if value != "" {
			s.Params[name] = value
		}
	}
	s.LastUsed = time.Now()
}

// SeedValues returns a copy of the carry-over parameter values for use as
// extraction seeds on the next query.
func (s *Session) SeedValues() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seed := make(map[string]string, len(s.Params))
	for name, value := range s.Params {
		seed[name] = value
	}
	return seed
}

// HistoryLen returns the number of recorded turns.
func (s *Session) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.History)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.LastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUsed
}
