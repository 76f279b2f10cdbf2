package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/normalize"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// Page sizes of the list views.
const (
	BooksPerPage   = 10
	AuthorsPerPage = 2
	LoansPerPage   = 10
)

// CatalogService serves the read-only catalog pages.
type CatalogService struct {
	store  store.Store
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store store.Store, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{store: store, logger: logger}
}

// HomeStats are the counters shown on the home page.
type HomeStats struct {
	NumBooks              int
	NumInstances          int
	NumInstancesAvailable int
	NumAuthors            int
	NumGenres             int
	NumVisits             int

	// Set only when a genre filter was given.
	Query                    string
	NumGenresMatching        int
	NumBooksInGenresMatching int
}

// HomeStats gathers the home page counters. visits is the caller's session
// visit count. A non-empty q also counts genres whose name contains q and
// the distinct books filed under them.
func (s *CatalogService) HomeStats(ctx context.Context, q string, visits int) (*HomeStats, error) {
	st := &HomeStats{NumVisits: visits, Query: normalize.SearchTerm(q)}

	counters := []struct {
		dst *int
		fn  func(context.Context) (int, error)
	}{
		{&st.NumBooks, s.store.CountBooks},
		{&st.NumInstances, s.store.CountInstances},
		{&st.NumAuthors, s.store.CountAuthors},
		{&st.NumGenres, s.store.CountGenres},
	}
	for _, c := range counters {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count catalog: %w", err)
		}
		*c.dst = n
	}

	n, err := s.store.CountInstancesByStatus(ctx, domain.StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to count available copies: %w", err)
	}
	st.NumInstancesAvailable = n

	if st.Query != "" {
		if st.NumGenresMatching, err = s.store.CountGenresMatching(ctx, st.Query); err != nil {
			return nil, fmt.Errorf("failed to count genres: %w", err)
		}
		if st.NumBooksInGenresMatching, err = s.store.CountBooksInGenresMatching(ctx, st.Query); err != nil {
			return nil, fmt.Errorf("failed to count books by genre: %w", err)
		}
	}
	return st, nil
}

// BookList is one page of books with the available-copy counts.
type BookList struct {
	Page      *store.Page[*domain.Book]
	Available map[string]string
}

// ListBooks returns a page of books ordered by title.
func (s *CatalogService) ListBooks(ctx context.Context, page int) (*BookList, error) {
	p, err := s.store.ListBooks(ctx, store.PageParams{Page: page, PerPage: BooksPerPage})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	if err := checkPage(p); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(p.Items))
	for _, b := range p.Items {
		ids = append(ids, b.ID)
	}
	counts, err := s.store.CountAvailableCopies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count available copies: %w", err)
	}

	return &BookList{Page: p, Available: FormatAvailability(counts)}, nil
}

// BookDetail is a book with its copies.
type BookDetail struct {
	Book   *domain.Book
	Copies []*domain.BookInstance
}

// GetBook loads a book and its copies.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*BookDetail, error) {
	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "Book not found")
	}
	copies, err := s.store.ListInstancesByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list copies: %w", err)
	}
	return &BookDetail{Book: b, Copies: copies}, nil
}

// ListAuthors returns a page of authors ordered by name.
func (s *CatalogService) ListAuthors(ctx context.Context, page int) (*store.Page[*domain.Author], error) {
	p, err := s.store.ListAuthors(ctx, store.PageParams{Page: page, PerPage: AuthorsPerPage})
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	if err := checkPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AuthorDetail is an author with their books.
type AuthorDetail struct {
	Author *domain.Author
	Books  []*domain.Book
}

// GetAuthor loads an author and their books.
func (s *CatalogService) GetAuthor(ctx context.Context, authorID string) (*AuthorDetail, error) {
	a, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		return nil, notFound(err, "Author not found")
	}
	books, err := s.store.ListBooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return &AuthorDetail{Author: a, Books: books}, nil
}

// BookChoices are the options offered by the book form.
type BookChoices struct {
	Authors   []*domain.Author
	Languages []*domain.Language
	Genres    []*domain.Genre
}

// BookChoices loads the select options for the book form.
func (s *CatalogService) BookChoices(ctx context.Context) (*BookChoices, error) {
	authors, err := s.store.ListAllAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	languages, err := s.store.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return &BookChoices{Authors: authors, Languages: languages, Genres: genres}, nil
}

// checkPage rejects page numbers past the end. The first page always exists.
func checkPage[T any](p *store.Page[T]) error {
	if p.Number > 1 && p.Number > p.NumPages() {
		return domainerrors.NotFound("Invalid page")
	}
	return nil
}

// notFound replaces a store miss with msg and passes other errors through.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg).WithCause(err)
	}
	return err
}
