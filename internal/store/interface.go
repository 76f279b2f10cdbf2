// Package store defines the persistence contract for the catalog and the
// error and pagination types shared by its implementations.
package store

import (
	"context"
	"time"

	"github.com/locallibrary/locallibrary-server/internal/domain"
)

// Store is the full persistence interface used by the services.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Authors
	CreateAuthor(ctx context.Context, a *domain.Author) error
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	UpdateAuthor(ctx context.Context, a *domain.Author) error
	DeleteAuthor(ctx context.Context, id string) error
	ListAuthors(ctx context.Context, p PageParams) (*Page[*domain.Author], error)
	ListAllAuthors(ctx context.Context) ([]*domain.Author, error)
	ListAuthorsByIDs(ctx context.Context, ids []string) ([]*domain.Author, error)
	ListAuthorsByIDsInNameOrder(ctx context.Context, ids []string) ([]*domain.Author, error)
	CountAuthors(ctx context.Context) (int, error)
	SearchAuthors(ctx context.Context, term string) ([]*domain.Author, error)

	// Books
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	UpdateBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListBooks(ctx context.Context, p PageParams) (*Page[*domain.Book], error)
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
	ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error)
	ListBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error)
	ListBooksByIDsInTitleOrder(ctx context.Context, ids []string) ([]*domain.Book, error)
	CountBooks(ctx context.Context) (int, error)
	SearchBooks(ctx context.Context, term string) ([]*domain.Book, error)

	// Genres
	CreateGenre(ctx context.Context, g *domain.Genre) error
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	CountGenres(ctx context.Context) (int, error)
	CountGenresMatching(ctx context.Context, term string) (int, error)
	CountBooksInGenresMatching(ctx context.Context, term string) (int, error)

	// Languages
	CreateLanguage(ctx context.Context, l *domain.Language) error
	GetLanguage(ctx context.Context, id string) (*domain.Language, error)
	ListLanguages(ctx context.Context) ([]*domain.Language, error)

	// Copies
	CreateInstance(ctx context.Context, bi *domain.BookInstance) error
	GetInstance(ctx context.Context, id string) (*domain.BookInstance, error)
	ListInstancesByBook(ctx context.Context, bookID string) ([]*domain.BookInstance, error)
	ListAllInstances(ctx context.Context) ([]*domain.BookInstance, error)
	CountInstances(ctx context.Context) (int, error)
	CountInstancesByStatus(ctx context.Context, status domain.LoanStatus) (int, error)
	ListBorrowedByUser(ctx context.Context, userID string, p PageParams) (*Page[*domain.BookInstance], error)
	ListOnLoan(ctx context.Context, p PageParams) (*Page[*domain.BookInstance], error)
	UpdateDueBack(ctx context.Context, id string, due time.Time) error
	CountAvailableCopies(ctx context.Context, bookIDs []string) (map[string]int, error)

	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GrantPermission(ctx context.Context, userID string, perm domain.Permission) error
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// SearchIndexer keeps an external search index in step with catalog writes.
// Index failures are logged by the store, never returned to the writer.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
	IndexAuthor(ctx context.Context, author *domain.Author) error
	DeleteAuthor(ctx context.Context, authorID string) error
}

// NoopSearchIndexer is used when no index is configured.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error     { return nil }
func (NoopSearchIndexer) DeleteBook(context.Context, string) error          { return nil }
func (NoopSearchIndexer) IndexAuthor(context.Context, *domain.Author) error { return nil }
func (NoopSearchIndexer) DeleteAuthor(context.Context, string) error        { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
