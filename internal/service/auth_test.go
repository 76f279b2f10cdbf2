package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/ratelimit"
	"github.com/locallibrary/locallibrary-server/internal/session"
)

func setupAuthService(t *testing.T, f *fixture, burst int) (*AuthService, *session.Manager) {
	t.Helper()

	sessions, err := session.OpenInMemory(time.Hour, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	mgr := session.NewManager(sessions, tokens, false, testLogger)
	limiter := ratelimit.New(0.001, burst)
	t.Cleanup(limiter.Stop)

	return NewAuthService(f.store, mgr, limiter, f.v, testLogger), mgr
}

func anonymous(t *testing.T, mgr *session.Manager) *session.Session {
	t.Helper()
	sess, err := mgr.Load(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	return sess
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, mgr := setupAuthService(t, f, 5)
	u := f.user("librarian", "s3cret", domain.PermMarkReturned)

	rec := httptest.NewRecorder()
	sess, user, err := svc.Login(ctx, rec, anonymous(t, mgr), LoginForm{Username: "librarian", Password: "s3cret"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	assert.Equal(t, u.ID, sess.UserID)
	assert.NotEmpty(t, rec.Result().Cookies())

	current, err := svc.CurrentUser(ctx, sess)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.HasPerm(domain.PermMarkReturned))
	assert.NotNil(t, current.LastLoginAt)

	require.NoError(t, svc.Logout(ctx, httptest.NewRecorder(), sess))
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, mgr := setupAuthService(t, f, 10)
	f.user("reader", "right")

	for _, form := range []LoginForm{
		{Username: "reader", Password: "wrong"},
		{Username: "nobody", Password: "right"},
	} {
		_, _, err := svc.Login(ctx, httptest.NewRecorder(), anonymous(t, mgr), form, "10.0.0.2")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	_, _, err := svc.Login(ctx, httptest.NewRecorder(), anonymous(t, mgr), LoginForm{}, "10.0.0.2")
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newFixture(t)
	svc, mgr := setupAuthService(t, f, 5)

	hash, err := auth.HashPasswordWith("pw", cheapHash)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateUser(context.Background(), &domain.User{Username: "gone", PasswordHash: hash}))

	_, _, err = svc.Login(context.Background(), httptest.NewRecorder(), anonymous(t, mgr), LoginForm{Username: "gone", Password: "pw"}, "ip")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	svc, mgr := setupAuthService(t, f, 2)
	f.user("reader", "right")

	form := LoginForm{Username: "reader", Password: "wrong"}
	for range 2 {
		_, _, err := svc.Login(context.Background(), httptest.NewRecorder(), anonymous(t, mgr), form, "10.0.0.3")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	_, _, err := svc.Login(context.Background(), httptest.NewRecorder(), anonymous(t, mgr), form, "10.0.0.3")
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	_, _, err = svc.Login(context.Background(), httptest.NewRecorder(), anonymous(t, mgr), form, "10.0.0.4")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials, "other clients are unaffected")
}

func TestCurrentUser_Anonymous(t *testing.T) {
	f := newFixture(t)
	svc, mgr := setupAuthService(t, f, 5)

	user, err := svc.CurrentUser(context.Background(), anonymous(t, mgr))
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = svc.CurrentUser(context.Background(), &session.Session{UserID: "user-deleted"})
	require.NoError(t, err)
	assert.Nil(t, user)
}
