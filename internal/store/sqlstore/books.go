package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// bookColumns must match the db tags of bookRow.
var bookColumns = []any{"id", "created_at", "updated_at", "title", "summary", "isbn", "author_id", "language_id"}

type bookRow struct {
	ID         string         `db:"id"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
	Title      string         `db:"title"`
	Summary    string         `db:"summary"`
	ISBN       string         `db:"isbn"`
	AuthorID   sql.NullString `db:"author_id"`
	LanguageID sql.NullString `db:"language_id"`
}

func (r *bookRow) toDomain() (*domain.Book, error) {
	b := &domain.Book{
		Title:      r.Title,
		Summary:    r.Summary,
		ISBN:       r.ISBN,
		AuthorID:   r.AuthorID.String,
		LanguageID: r.LanguageID.String,
	}
	b.ID = r.ID

	var err error
	if b.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func bookRecord(b *domain.Book) goqu.Record {
	return goqu.Record{
		"updated_at":  formatTime(b.UpdatedAt),
		"title":       b.Title,
		"summary":     b.Summary,
		"isbn":        b.ISBN,
		"author_id":   nullable(b.AuthorID),
		"language_id": nullable(b.LanguageID),
	}
}

func (s *Store) booksQuery() *goqu.SelectDataset {
	return s.dialect.From("books").Select(bookColumns...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc())
}

// loadBooks runs ds and attaches author, language and genres to every book.
func (s *Store) loadBooks(ctx context.Context, ds *goqu.SelectDataset) ([]*domain.Book, error) {
	var rows []bookRow
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("scan book %s: %w", rows[i].ID, err)
		}
		books = append(books, b)
	}

	if err := s.attachBookRelations(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) attachBookRelations(ctx context.Context, books []*domain.Book) error {
	if len(books) == 0 {
		return nil
	}

	bookIDs := make([]string, 0, len(books))
	authorIDs := make([]string, 0, len(books))
	languageIDs := make([]string, 0, len(books))
	for _, b := range books {
		bookIDs = append(bookIDs, b.ID)
		if b.AuthorID != "" {
			authorIDs = append(authorIDs, b.AuthorID)
		}
		if b.LanguageID != "" {
			languageIDs = append(languageIDs, b.LanguageID)
		}
	}

	authors, err := s.authorsByID(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	languages, err := s.languagesByID(ctx, languageIDs)
	if err != nil {
		return fmt.Errorf("load languages: %w", err)
	}
	genres, err := s.genresByBook(ctx, bookIDs)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}

	for _, b := range books {
		b.Author = authors[b.AuthorID]
		b.Language = languages[b.LanguageID]
		b.Genres = genres[b.ID]
	}
	return nil
}

// replaceGenres rewrites the genre links of a book inside tx.
// Position keeps the order in which genres were chosen.
func (s *Store) replaceGenres(ctx context.Context, tx *sqlx.Tx, bookID string, genreIDs []string) error {
	if _, err := s.exec(ctx, tx, s.dialect.Delete("book_genres").
		Where(goqu.C("book_id").Eq(bookID)).Prepared(true)); err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(genreIDs))
	seen := make(map[string]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		rows = append(rows, goqu.Record{"book_id": bookID, "genre_id": gid, "position": len(rows)})
	}

	_, err := s.exec(ctx, tx, s.dialect.Insert("book_genres").Rows(rows...).Prepared(true))
	return err
}

// CreateBook inserts a book and its genre links in one transaction.
// An empty ID is generated. Genre links are taken from b.Genres.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	if err := s.stampNew(&b.Record, func() (string, error) { return id.Generate(id.PrefixBook) }); err != nil {
		return err
	}

	rec := bookRecord(b)
	rec["id"] = b.ID
	rec["created_at"] = formatTime(b.CreatedAt)

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.exec(ctx, tx, s.dialect.Insert("books").Rows(rec).Prepared(true)); err != nil {
			return err
		}
		return s.replaceGenres(ctx, tx, b.ID, b.GenreIDs())
	})
	if err != nil {
		return writeErr(err)
	}

	s.reindexBook(ctx, b.ID)
	return nil
}

// GetBook retrieves a book with its author, language and genres.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	books, err := s.loadBooks(ctx, s.booksQuery().Where(goqu.C("id").Eq(bookID)))
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if len(books) == 0 {
		return nil, store.ErrNotFound
	}
	return books[0], nil
}

// UpdateBook overwrites the editable fields and genre links of a book.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	b.UpdatedAt = s.now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := s.exec(ctx, tx, s.dialect.Update("books").
			Set(bookRecord(b)).
			Where(goqu.C("id").Eq(b.ID)).
			Prepared(true))
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return s.replaceGenres(ctx, tx, b.ID, b.GenreIDs())
	})
	if err != nil {
		return writeErr(err)
	}

	s.reindexBook(ctx, b.ID)
	return nil
}

// DeleteBook removes a book and its genre links.
// Returns store.ErrInUse while copies of the book exist.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	n, err := s.exec(ctx, s.db, s.dialect.Delete("books").Where(goqu.C("id").Eq(bookID)).Prepared(true))
	if err != nil {
		return deleteErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteBook(ctx, bookID); err != nil {
		s.logger.Warn("failed to remove book from index", "book_id", bookID, "error", err)
	}
	return nil
}

// ListBooks returns one page of books ordered by title.
func (s *Store) ListBooks(ctx context.Context, p store.PageParams) (*store.Page[*domain.Book], error) {
	p.Validate()

	total, err := s.CountBooks(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.loadBooks(ctx, s.booksQuery().Limit(uint(p.PerPage)).Offset(uint(p.Offset())))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return store.NewPage(books, p, total), nil
}

// ListAllBooks returns every book, used to rebuild the search index.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.loadBooks(ctx, s.booksQuery())
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListBooksByAuthor returns the books credited to an author, by title.
func (s *Store) ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	books, err := s.loadBooks(ctx, s.booksQuery().Where(goqu.C("author_id").Eq(authorID)))
	if err != nil {
		return nil, fmt.Errorf("list books by author: %w", err)
	}
	return books, nil
}

// ListBooksByIDs loads the given books in the order of ids.
// Unknown IDs are skipped.
func (s *Store) ListBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	books, err := s.loadBooks(ctx, s.booksQuery().Where(goqu.C("id").In(ids)))
	if err != nil {
		return nil, fmt.Errorf("list books by id: %w", err)
	}
	return reorder(ids, books, func(b *domain.Book) string { return b.ID }), nil
}

// ListBooksByIDsInTitleOrder loads the given books ordered by title the way
// SearchBooks orders them, so the database collation decides ties.
func (s *Store) ListBooksByIDsInTitleOrder(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	books, err := s.loadBooks(ctx, s.booksQuery().Where(goqu.C("id").In(ids)))
	if err != nil {
		return nil, fmt.Errorf("list books by id: %w", err)
	}
	return books, nil
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, s.dialect.From("books").Select(goqu.COUNT(goqu.Star())))
}

// SearchBooks returns books whose title contains term, ignoring case,
// ordered by title. An empty term matches nothing.
func (s *Store) SearchBooks(ctx context.Context, term string) ([]*domain.Book, error) {
	if term == "" {
		return nil, nil
	}
	books, err := s.loadBooks(ctx, s.booksQuery().Where(s.containsFold(goqu.C("title"), term)))
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// reindexBook reloads a book with its relations and pushes it to the index.
func (s *Store) reindexBook(ctx context.Context, bookID string) {
	if _, ok := s.searchIndexer.(store.NoopSearchIndexer); ok {
		return
	}
	b, err := s.GetBook(ctx, bookID)
	if err != nil {
		s.logger.Warn("failed to reload book for indexing", "book_id", bookID, "error", err)
		return
	}
	s.indexBook(ctx, b)
}
