package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/normalize"
	"github.com/locallibrary/locallibrary-server/internal/ratelimit"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

const badCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// AuthService signs users in and out of their browser sessions.
type AuthService struct {
	store     store.Store
	sessions  *session.Manager
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one argon2 run.
	dummyHash func() string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	sessions *session.Manager,
	limiter *ratelimit.KeyedRateLimiter,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     store,
		sessions:  sessions,
		limiter:   limiter,
		validator: validator,
		logger:    logger,
		now:       time.Now,
		dummyHash: sync.OnceValue(func() string {
			h, err := auth.HashPassword("locallibrary-dummy-password")
			if err != nil {
				return ""
			}
			return h
		}),
	}
}

// Login checks form against the stored credentials for clientKey (the
// client address) and, on success, binds the user to a fresh session.
// The returned session replaces sess for the rest of the request.
func (s *AuthService) Login(
	ctx context.Context,
	w http.ResponseWriter,
	sess *session.Session,
	form LoginForm,
	clientKey string,
) (*session.Session, *domain.User, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		s.logger.Warn("login rate limited", "client", clientKey)
		return nil, nil, domainerrors.RateLimited("Too many login attempts. Please wait a moment and try again.")
	}

	form.Username = normalize.Text(form.Username)
	if err := s.validator.Validate(form); err != nil {
		return nil, nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, form.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to load user: %w", err)
		}
		auth.VerifyPassword(s.dummyHash(), form.Password)
		return nil, nil, domainerrors.InvalidCredentials(badCredentials)
	}

	if !auth.VerifyPassword(user.PasswordHash, form.Password) || !user.IsActive {
		s.logger.Info("login failed", "username", form.Username, "client", clientKey)
		return nil, nil, domainerrors.InvalidCredentials(badCredentials)
	}

	fresh, err := s.sessions.Login(ctx, w, sess, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}

	if err := s.store.TouchLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return fresh, user, nil
}

// Logout ends the session and clears the cookie.
func (s *AuthService) Logout(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	if sess.IsAuthenticated() {
		s.logger.Info("user logged out", "user_id", sess.UserID)
	}
	return s.sessions.Destroy(ctx, w, sess)
}

// CurrentUser returns the user signed in on sess, or nil for anonymous
// visitors. A session naming a deleted or deactivated user is anonymous.
func (s *AuthService) CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, error) {
	if !sess.IsAuthenticated() {
		return nil, nil
	}

	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// CreateUser hashes password and stores a new active user. Used by the
// seed command.
func (s *AuthService) CreateUser(ctx context.Context, username, password string, perms ...domain.Permission) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     normalize.Text(username),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      len(perms) > 0,
		Permissions:  perms,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
