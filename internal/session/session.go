// Package session implements the simplistic single-operator login: one
// configured credential pair, random bearer tokens, explicit session state
// instead of ambient globals.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the per-login state handed to request handlers.
type Session struct {
	Token     string
	User      string
	CreatedAt time.Time
}

// Manager issues and validates session tokens.
type Manager struct {
	username string
	password string

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager creates a session manager for the configured credentials.
func NewManager(username, password string) *Manager {
	return &Manager{
		username: username,
		password: password,
		sessions: make(map[string]Session),
	}
}

// Login checks the credentials and, on success, issues a new session token.
func (m *Manager) Login(username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		return Session{}, ErrInvalidCredentials
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Session{}, err
	}
	s := Session{
		Token:     hex.EncodeToString(buf),
		User:      username,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s, nil
}

// Validate resolves a token to its session.
func (m *Manager) Validate(token string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Logout tears the session down.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
