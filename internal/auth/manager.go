package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
)

// Manager holds the credential for the current process and keeps the session
// store in sync with it. It answers login-state questions from memory alone;
// nothing here touches the network.
type Manager struct {
	store *Store

	mu     sync.RWMutex
	token  string
	apiKey string
	claims *Claims
}

// NewManager creates a manager primed from the persisted session. A persisted
// token that no longer decodes is ignored, leaving the manager logged out.
func NewManager(store *Store) (*Manager, error) {
	manager := &Manager{store: store}

	session, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if session == nil {
		return manager, nil
	}

	if session.APIKey != "" {
		manager.apiKey = session.APIKey

		return manager, nil
	}

	claims, err := ParseClaims(session.Token)
	if err != nil {
		return manager, nil
	}

	manager.token = session.Token
	manager.claims = claims

	return manager, nil
}

// SetToken stores a session token, rejecting anything that does not decode.
func (m *Manager) SetToken(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.apiKey = ""
	m.claims = claims

	return m.store.Save(&Session{Token: token})
}

// SetAPIKey stores an API key credential.
func (m *Manager) SetAPIKey(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.apiKey = key
	m.claims = nil

	return m.store.Save(&Session{APIKey: key})
}

// Clear drops the credential from memory and disk.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.apiKey = ""
	m.claims = nil

	return m.store.Clear()
}

// Credential returns the raw bearer value and whether one is present.
func (m *Manager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.apiKey != "" {
		return m.apiKey, true
	}

	return m.token, m.token != ""
}

// Claims returns the decoded token claims, or nil when authenticated by API
// key or not at all.
func (m *Manager) Claims() *Claims {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.claims
}

// IsAPIKey reports whether the credential is an API key.
func (m *Manager) IsAPIKey() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.apiKey != ""
}

// IsLoggedIn reports whether a usable credential is present. A token pending
// a second factor does not count, and neither does one past its expiry.
func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.apiKey != "" {
		return true
	}

	if m.claims == nil {
		return false
	}

	return !m.claims.TwoFactorRequired && !m.claims.Expired(time.Now())
}

// TwoFactorPending reports whether the stored token still needs a second
// factor challenge.
func (m *Manager) TwoFactorPending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.claims != nil && m.claims.TwoFactorRequired
}

// NeedsRefresh reports whether the token should be exchanged before use. API
// keys never refresh, and a token pending its second factor cannot.
func (m *Manager) NeedsRefresh(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.apiKey != "" || m.claims == nil || m.claims.TwoFactorRequired {
		return false
	}

	return m.claims.NeedsRefresh(now, constants.TokenExpiryLeadTime, constants.DefaultTokenRefreshInterval)
}
