package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/id"
)

// CookieName is the name of the session cookie.
const CookieName = "sessionid"

// Manager ties the badger store to the session cookie.
type Manager struct {
	store  *Store
	tokens *auth.TokenService
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a session manager. secure sets the Secure flag on cookies.
func NewManager(store *Store, tokens *auth.TokenService, secure bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, tokens: tokens, secure: secure, logger: logger, now: time.Now}
}

// Load returns the session named by the request cookie, or a fresh unsaved
// session when the cookie is absent, invalid or points at an expired entry.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		claims, err := m.tokens.Open(c.Value)
		if err == nil {
			sess, err := m.store.Get(r.Context(), claims.SessionID)
			switch {
			case err == nil:
				return sess, nil
			case !errors.Is(err, ErrNotFound):
				return nil, err
			}
		} else {
			m.logger.Debug("discarding session cookie", "error", err)
		}
	}
	return m.newSession()
}

func (m *Manager) newSession() (*Session, error) {
	sid, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := m.now()
	return &Session{ID: sid, CreatedAt: now, UpdatedAt: now, isNew: true}, nil
}

// Save persists the session and refreshes the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	sess.UpdatedAt = m.now()
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(m.tokens.Seal(sess.ID), int(m.tokens.Duration().Seconds())))
	return nil
}

// Login binds userID to a new session ID, discarding the old ID so a
// pre-login cookie cannot be replayed. The visit counter carries over.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, sess *Session, userID string) (*Session, error) {
	if !sess.isNew {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return nil, err
		}
	}

	fresh, err := m.newSession()
	if err != nil {
		return nil, err
	}
	fresh.UserID = userID
	fresh.Visits = sess.Visits

	if err := m.Save(ctx, w, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess != nil && !sess.isNew {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	http.SetCookie(w, m.cookie("", -1))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
