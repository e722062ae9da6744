// Package auth holds the process-wide session manager. Identity is an
// explicit dependency: components that need to know who is signed in receive
// a [*Manager] instead of reading ambient global state. The manager has a
// clear lifecycle (load on start, sign-in after the OAuth flow, sign-out on
// request) and persists the session between runs.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// Identity is the authenticated user as reported by the catalog service.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session couples an identity with the OAuth token that proves it.
type Session struct {
	User      Identity      `json:"user"`
	Token     *oauth2.Token `json:"token"`
	CreatedAt time.Time     `json:"created_at"`
}

// Manager owns the current session and its on-disk copy. All methods are
// safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	path    string
	logger  *log.Logger
	session *Session
}

// NewManager creates a manager persisting sessions at path. A nil logger
// falls back to stderr. Call [Manager.Load] before first use.
func NewManager(path string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{path: path, logger: logger}
}

// DefaultSessionPath returns the session file location under the user's home
// directory.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".shelfctl", "session.json"), nil
}

// Load reads the persisted session if one exists. A missing file simply
// means signed out.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.session = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	m.session = &session
	m.logger.Debug("session loaded", "user", session.User.Email)
	return nil
}

// SignIn stores the session in memory and on disk.
func (m *Manager) SignIn(user Identity, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = &Session{User: user, Token: token, CreatedAt: time.Now()}
	if err := m.persist(); err != nil {
		return err
	}

	m.logger.Info("signed in", "user", user.Email)
	return nil
}

// SignOut forgets the session and removes its on-disk copy. Signing out
// while signed out is a no-op.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	m.logger.Info("signed out")
	return nil
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Token returns the active session's OAuth token.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.Token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return m.session.Token, nil
}

// UpdateToken replaces the session token after a refresh and persists it, so
// the next run does not have to refresh again.
func (m *Manager) UpdateToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return shared.ErrNotAuthenticated
	}

	m.session.Token = token
	return m.persist()
}

// Authenticated reports whether a session is loaded. Token expiry is the
// service layer's concern: an expired token is still a session and will be
// refreshed on use.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// persist writes the session file with owner-only permissions. Callers must
// hold m.mu.
func (m *Manager) persist() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
