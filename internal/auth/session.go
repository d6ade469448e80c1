package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// SessionManager tracks logged-in sessions by opaque token. Tokens are
// random, sessions expire after a fixed TTL, and expired entries are
// swept by a background cleanup loop.
type SessionManager struct {
	mu           sync.Mutex
	sessions     map[string]time.Time
	ttl          time.Duration
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	m := &SessionManager{
		sessions:    make(map[string]time.Time),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup()
	return m
}

// Create issues a new session token.
func (m *SessionManager) Create() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = time.Now().Add(m.ttl)
	m.mu.Unlock()

	return token, nil
}

// Valid reports whether token belongs to a live session.
func (m *SessionManager) Valid(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(m.sessions, token)
		return false
	}
	return true
}

// Revoke ends the session for token, if any.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *SessionManager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, expiry := range m.sessions {
		if now.After(expiry) {
			delete(m.sessions, token)
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (m *SessionManager) Stop() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)
	})
}
