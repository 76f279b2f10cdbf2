package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/auth"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(time.Hour, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func setupTestManager(t *testing.T) *Manager {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)
	return NewManager(setupTestStore(t), tokens, false, nil)
}

func TestStore_SaveGetDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := &Session{ID: "sess_1", UserID: "user_1", Visits: 3, CreatedAt: time.Now()}
	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", got.UserID)
	assert.Equal(t, 3, got.Visits)
	assert.True(t, got.IsAuthenticated())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, "sess_1"))
	_, err = s.Get(ctx, "sess_1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "sess_1"), "deleting twice is fine")
}

func TestStore_Expiry(t *testing.T) {
	s, err := OpenInMemory(time.Second, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &Session{ID: "sess_short"}))

	_, err = s.Get(ctx, "sess_short")
	require.NoError(t, err)

	// badger TTLs have one-second resolution.
	time.Sleep(2100 * time.Millisecond)

	_, err = s.Get(ctx, "sess_short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, &Session{ID: "sess_disk", Visits: 7}))
	require.NoError(t, s.Close())

	s, err = Open(dir, time.Hour, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "sess_disk")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Visits)
}

func TestManager_NewSessionWithoutCookie(t *testing.T) {
	m := setupTestManager(t)

	sess, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, sess.IsNew())
	assert.False(t, sess.IsAuthenticated())
	assert.NotEmpty(t, sess.ID)
}

func TestManager_RoundTrip(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Visits++

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, sess.ID, "session ID must be encrypted")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again, err := m.Load(req)
	require.NoError(t, err)
	assert.False(t, again.IsNew())
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, 1, again.Visits)
}

func TestManager_TamperedCookie(t *testing.T) {
	m := setupTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "v4.local.garbage"})

	sess, err := m.Load(req)
	require.NoError(t, err)
	assert.True(t, sess.IsNew())
}

func TestManager_LoginRotatesID(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Visits = 4
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))

	rec := httptest.NewRecorder()
	fresh, err := m.Login(ctx, rec, sess, "user_abc")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID)
	assert.Equal(t, "user_abc", fresh.UserID)
	assert.Equal(t, 4, fresh.Visits)

	_, err = m.store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound, "pre-login session must be gone")
}

func TestManager_Destroy(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.UserID = "user_abc"
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))

	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, err = m.store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
