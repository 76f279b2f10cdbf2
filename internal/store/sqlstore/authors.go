package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// authorColumns must match the db tags of authorRow.
var authorColumns = []any{"id", "created_at", "updated_at", "first_name", "last_name", "date_of_birth", "date_of_death"}

type authorRow struct {
	ID          string         `db:"id"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	FirstName   string         `db:"first_name"`
	LastName    string         `db:"last_name"`
	DateOfBirth sql.NullString `db:"date_of_birth"`
	DateOfDeath sql.NullString `db:"date_of_death"`
}

func (r *authorRow) toDomain() (*domain.Author, error) {
	a := &domain.Author{FirstName: r.FirstName, LastName: r.LastName}
	a.ID = r.ID

	var err error
	if a.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if a.DateOfBirth, err = parseNullableDate(r.DateOfBirth); err != nil {
		return nil, err
	}
	if a.DateOfDeath, err = parseNullableDate(r.DateOfDeath); err != nil {
		return nil, err
	}
	return a, nil
}

func authorsFromRows(rows []authorRow) ([]*domain.Author, error) {
	out := make([]*domain.Author, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("scan author %s: %w", rows[i].ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func authorRecord(a *domain.Author) goqu.Record {
	return goqu.Record{
		"updated_at":    formatTime(a.UpdatedAt),
		"first_name":    a.FirstName,
		"last_name":     a.LastName,
		"date_of_birth": formatDate(a.DateOfBirth),
		"date_of_death": formatDate(a.DateOfDeath),
	}
}

func (s *Store) authorsQuery() *goqu.SelectDataset {
	return s.dialect.From("authors").Select(authorColumns...).
		Order(goqu.C("last_name").Asc(), goqu.C("first_name").Asc(), goqu.C("id").Asc())
}

// CreateAuthor inserts a new author. An empty ID is generated.
func (s *Store) CreateAuthor(ctx context.Context, a *domain.Author) error {
	if err := s.stampNew(&a.Record, func() (string, error) { return id.Generate(id.PrefixAuthor) }); err != nil {
		return err
	}

	rec := authorRecord(a)
	rec["id"] = a.ID
	rec["created_at"] = formatTime(a.CreatedAt)

	if _, err := s.exec(ctx, s.db, s.dialect.Insert("authors").Rows(rec).Prepared(true)); err != nil {
		return writeErr(err)
	}

	s.indexAuthor(ctx, a)
	return nil
}

// GetAuthor retrieves an author by ID.
// Returns store.ErrNotFound if the author does not exist.
func (s *Store) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	var row authorRow
	if err := s.selectOne(ctx, s.db, &row, s.authorsQuery().Where(goqu.C("id").Eq(authorID))); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// UpdateAuthor overwrites the editable fields of an existing author.
func (s *Store) UpdateAuthor(ctx context.Context, a *domain.Author) error {
	a.UpdatedAt = s.now()

	n, err := s.exec(ctx, s.db, s.dialect.Update("authors").
		Set(authorRecord(a)).
		Where(goqu.C("id").Eq(a.ID)).
		Prepared(true))
	if err != nil {
		return writeErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.indexAuthor(ctx, a)
	return nil
}

// DeleteAuthor removes an author.
// Returns store.ErrInUse while any book still references the author.
func (s *Store) DeleteAuthor(ctx context.Context, authorID string) error {
	n, err := s.exec(ctx, s.db, s.dialect.Delete("authors").Where(goqu.C("id").Eq(authorID)).Prepared(true))
	if err != nil {
		return deleteErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteAuthor(ctx, authorID); err != nil {
		s.logger.Warn("failed to remove author from index", "author_id", authorID, "error", err)
	}
	return nil
}

// ListAuthors returns one page of authors ordered by last then first name.
func (s *Store) ListAuthors(ctx context.Context, p store.PageParams) (*store.Page[*domain.Author], error) {
	p.Validate()

	total, err := s.CountAuthors(ctx)
	if err != nil {
		return nil, err
	}

	var rows []authorRow
	ds := s.authorsQuery().Limit(uint(p.PerPage)).Offset(uint(p.Offset()))
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	authors, err := authorsFromRows(rows)
	if err != nil {
		return nil, err
	}
	return store.NewPage(authors, p, total), nil
}

// ListAllAuthors returns every author, used to rebuild the search index.
func (s *Store) ListAllAuthors(ctx context.Context) ([]*domain.Author, error) {
	var rows []authorRow
	if err := s.selectAll(ctx, s.db, &rows, s.authorsQuery()); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authorsFromRows(rows)
}

// ListAuthorsByIDs loads the given authors in the order of ids.
// Unknown IDs are skipped.
func (s *Store) ListAuthorsByIDs(ctx context.Context, ids []string) ([]*domain.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []authorRow
	if err := s.selectAll(ctx, s.db, &rows, s.authorsQuery().Where(goqu.C("id").In(ids))); err != nil {
		return nil, fmt.Errorf("list authors by id: %w", err)
	}

	authors, err := authorsFromRows(rows)
	if err != nil {
		return nil, err
	}
	return reorder(ids, authors, func(a *domain.Author) string { return a.ID }), nil
}

// ListAuthorsByIDsInNameOrder loads the given authors ordered by last then
// first name, as SearchAuthors orders them.
func (s *Store) ListAuthorsByIDsInNameOrder(ctx context.Context, ids []string) ([]*domain.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []authorRow
	if err := s.selectAll(ctx, s.db, &rows, s.authorsQuery().Where(goqu.C("id").In(ids))); err != nil {
		return nil, fmt.Errorf("list authors by id: %w", err)
	}
	return authorsFromRows(rows)
}

// CountAuthors returns the number of authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.count(ctx, s.dialect.From("authors").Select(goqu.COUNT(goqu.Star())))
}

// SearchAuthors returns authors whose first or last name contains term,
// ignoring case, ordered by last then first name. An empty term matches nothing.
func (s *Store) SearchAuthors(ctx context.Context, term string) ([]*domain.Author, error) {
	if term == "" {
		return nil, nil
	}

	var rows []authorRow
	ds := s.authorsQuery().Where(goqu.Or(
		s.containsFold(goqu.C("first_name"), term),
		s.containsFold(goqu.C("last_name"), term),
	))
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("search authors: %w", err)
	}
	return authorsFromRows(rows)
}

// authorsByID loads authors into a map for attaching to books.
func (s *Store) authorsByID(ctx context.Context, ids []string) (map[string]*domain.Author, error) {
	authors, err := s.ListAuthorsByIDs(ctx, ids)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	out := make(map[string]*domain.Author, len(authors))
	for _, a := range authors {
		out[a.ID] = a
	}
	return out, nil
}
