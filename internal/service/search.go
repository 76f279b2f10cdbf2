package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/normalize"
	"github.com/locallibrary/locallibrary-server/internal/search"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// ResultKind tags a search item.
type ResultKind string

// Search result kinds.
const (
	KindBook   ResultKind = "book"
	KindAuthor ResultKind = "author"
)

// SearchItem is one row of the combined result list. Exactly one of Book
// and Author is set, matching Kind.
type SearchItem struct {
	Kind   ResultKind
	Book   *domain.Book
	Author *domain.Author
}

// SearchResults is what the search page renders.
type SearchResults struct {
	Query     string
	Performed bool
	Books     []*domain.Book
	Authors   []*domain.Author
	Items     []SearchItem
}

// Total returns the number of matches across both kinds.
func (r *SearchResults) Total() int {
	return len(r.Books) + len(r.Authors)
}

// searchIndex is the part of search.Index the service needs.
type searchIndex interface {
	MatchBookIDs(ctx context.Context, term string) ([]string, error)
	MatchAuthorIDs(ctx context.Context, term string) ([]string, error)
	Reindex(books []*domain.Book, authors []*domain.Author) error
}

// SearchService finds books by title and authors by name.
type SearchService struct {
	store  store.Store
	index  searchIndex
	logger *slog.Logger
}

// NewSearchService creates a search service. A nil index searches through
// the store only.
func NewSearchService(store store.Store, index *search.Index, logger *slog.Logger) *SearchService {
	s := &SearchService{store: store, logger: logger}
	if index != nil {
		s.index = index
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Search runs q against book titles and author names. Matching is a
// case-insensitive substring test with no ranking. A blank q performs no
// search.
func (s *SearchService) Search(ctx context.Context, q string) (*SearchResults, error) {
	res := &SearchResults{Query: normalize.SearchTerm(q)}
	if res.Query == "" {
		return res, nil
	}
	res.Performed = true

	var err error
	if s.index != nil && search.Searchable(res.Query) {
		res.Books, res.Authors, err = s.searchIndex(ctx, res.Query)
	} else {
		res.Books, res.Authors, err = s.searchStore(ctx, res.Query)
	}
	if err != nil {
		return nil, err
	}

	res.Items = make([]SearchItem, 0, res.Total())
	for _, b := range res.Books {
		res.Items = append(res.Items, SearchItem{Kind: KindBook, Book: b})
	}
	for _, a := range res.Authors {
		res.Items = append(res.Items, SearchItem{Kind: KindAuthor, Author: a})
	}
	return res, nil
}

func (s *SearchService) searchStore(ctx context.Context, term string) ([]*domain.Book, []*domain.Author, error) {
	books, err := s.store.SearchBooks(ctx, term)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search books: %w", err)
	}
	authors, err := s.store.SearchAuthors(ctx, term)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search authors: %w", err)
	}
	return books, authors, nil
}

// searchIndex asks the index for IDs and loads the rows through the store,
// which orders them the way the SQL search does.
func (s *SearchService) searchIndex(ctx context.Context, term string) ([]*domain.Book, []*domain.Author, error) {
	bookIDs, err := s.index.MatchBookIDs(ctx, term)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query index: %w", err)
	}
	authorIDs, err := s.index.MatchAuthorIDs(ctx, term)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query index: %w", err)
	}

	books, err := s.store.ListBooksByIDsInTitleOrder(ctx, bookIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load books: %w", err)
	}
	authors, err := s.store.ListAuthorsByIDsInNameOrder(ctx, authorIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load authors: %w", err)
	}
	return books, authors, nil
}

// Reindex rebuilds the index from the store. The index only follows writes
// while it is attached to the store, so a process that ran with the store
// backend can leave it stale. Without an index it does nothing.
func (s *SearchService) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	authors, err := s.store.ListAllAuthors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list authors: %w", err)
	}
	return s.index.Reindex(books, authors)
}
