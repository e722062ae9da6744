package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"golang.org/x/oauth2"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		TokenType:    "Bearer",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestManager_SignInAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".shelfctl", "session.json")

	m := NewManager(path, nil)
	if m.Authenticated() {
		t.Fatal("fresh manager should not be authenticated")
	}

	user := Identity{ID: "user-1", Email: "reader@example.com", Name: "Reader"}
	if err := m.SignIn(user, testToken()); err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}

	if !m.Authenticated() {
		t.Fatal("expected manager to be authenticated after sign in")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	// A second manager picks the session up from disk.
	restored := NewManager(path, nil)
	if err := restored.Load(); err != nil {
		t.Fatalf("failed to load session: %v", err)
	}

	session, ok := restored.Current()
	if !ok {
		t.Fatal("expected a loaded session")
	}
	if session.User.Email != "reader@example.com" {
		t.Errorf("expected reader@example.com, got %s", session.User.Email)
	}

	token, err := restored.Token()
	if err != nil {
		t.Fatalf("failed to get token: %v", err)
	}
	if token.AccessToken != "access-token" {
		t.Errorf("unexpected access token %q", token.AccessToken)
	}
}

func TestManager_Load(t *testing.T) {
	t.Run("missing file means signed out", func(t *testing.T) {
		m := NewManager(filepath.Join(t.TempDir(), "session.json"), nil)

		if err := m.Load(); err != nil {
			t.Fatalf("missing session file should not error: %v", err)
		}
		if m.Authenticated() {
			t.Error("expected signed out state")
		}
	})

	t.Run("corrupt file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		m := NewManager(path, nil)
		err := m.Load()
		if err == nil {
			t.Fatal("expected an error for a corrupt session file")
		}
		if !strings.Contains(err.Error(), "failed to parse session file") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestManager_SignOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := NewManager(path, nil)

	if err := m.SignIn(Identity{ID: "user-1", Email: "reader@example.com"}, testToken()); err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}

	if err := m.SignOut(); err != nil {
		t.Fatalf("failed to sign out: %v", err)
	}

	if m.Authenticated() {
		t.Error("expected signed out state")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected session file removed")
	}
	if _, err := m.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	// Signing out again is a no-op.
	if err := m.SignOut(); err != nil {
		t.Errorf("repeated sign out should not error: %v", err)
	}
}

func TestManager_UpdateToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := NewManager(path, nil)

	t.Run("requires a session", func(t *testing.T) {
		if err := m.UpdateToken(testToken()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("persists the refreshed token", func(t *testing.T) {
		if err := m.SignIn(Identity{ID: "user-1"}, testToken()); err != nil {
			t.Fatalf("failed to sign in: %v", err)
		}

		refreshed := testToken()
		refreshed.AccessToken = "rotated-access-token"
		if err := m.UpdateToken(refreshed); err != nil {
			t.Fatalf("failed to update token: %v", err)
		}

		restored := NewManager(path, nil)
		if err := restored.Load(); err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		token, err := restored.Token()
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if token.AccessToken != "rotated-access-token" {
			t.Errorf("expected the rotated token on disk, got %q", token.AccessToken)
		}
	})

	t.Run("rejects a nil token", func(t *testing.T) {
		if err := m.UpdateToken(nil); err == nil || !strings.Contains(err.Error(), "token cannot be nil") {
			t.Fatalf("expected nil token rejection, got %v", err)
		}
	})
}

func TestManager_SignIn_NilToken(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "session.json"), nil)

	err := m.SignIn(Identity{ID: "user-1"}, nil)
	if err == nil || !strings.Contains(err.Error(), "token cannot be nil") {
		t.Fatalf("expected nil token rejection, got %v", err)
	}
}

func TestDefaultSessionPath(t *testing.T) {
	path, err := DefaultSessionPath()
	if err != nil {
		t.Fatalf("failed to resolve path: %v", err)
	}
	if !strings.Contains(path, ".shelfctl") {
		t.Errorf("expected path under .shelfctl, got %s", path)
	}
	if filepath.Base(path) != "session.json" {
		t.Errorf("expected session.json, got %s", filepath.Base(path))
	}
}
