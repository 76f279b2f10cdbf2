package service

import (
	"context"
	"log/slog"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var cheapHash = auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// setupTestStore opens a throwaway SQLite catalog.
func setupTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	t     *testing.T
	store *sqlstore.Store
	v     *validation.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, store: setupTestStore(t), v: validation.New()}
}

func (f *fixture) author(first, last string) *domain.Author {
	f.t.Helper()
	a := &domain.Author{FirstName: first, LastName: last}
	require.NoError(f.t, f.store.CreateAuthor(context.Background(), a))
	return a
}

func (f *fixture) genre(name string) *domain.Genre {
	f.t.Helper()
	g := &domain.Genre{Name: name}
	require.NoError(f.t, f.store.CreateGenre(context.Background(), g))
	return g
}

func (f *fixture) book(title string, a *domain.Author, genres ...*domain.Genre) *domain.Book {
	f.t.Helper()
	b := &domain.Book{Title: title, Summary: "About " + title, ISBN: "9780000000001", Genres: genres}
	if a != nil {
		b.AuthorID = a.ID
	}
	require.NoError(f.t, f.store.CreateBook(context.Background(), b))
	return b
}

func (f *fixture) copyOf(b *domain.Book, status domain.LoanStatus, borrower string, due string) *domain.BookInstance {
	f.t.Helper()
	bi := &domain.BookInstance{BookID: b.ID, Imprint: "Imprint", Status: status, BorrowerID: borrower}
	if due != "" {
		d, err := time.Parse(domain.DateLayout, due)
		require.NoError(f.t, err)
		bi.DueBack = &d
	}
	require.NoError(f.t, f.store.CreateInstance(context.Background(), bi))
	return bi
}

func (f *fixture) user(username, password string, perms ...domain.Permission) *domain.User {
	f.t.Helper()
	hash, err := auth.HashPasswordWith(password, cheapHash)
	require.NoError(f.t, err)
	u := &domain.User{Username: username, PasswordHash: hash, IsActive: true, Permissions: perms}
	require.NoError(f.t, f.store.CreateUser(context.Background(), u))
	return u
}
