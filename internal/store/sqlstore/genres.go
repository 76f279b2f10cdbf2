package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
)

// namedRow scans genres and languages, which share a shape.
type namedRow struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
	Name      string `db:"name"`
}

var namedColumns = []any{"id", "created_at", "updated_at", "name"}

func (r *namedRow) record() (domain.Record, error) {
	rec := domain.Record{ID: r.ID}
	var err error
	if rec.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return rec, err
	}
	return rec, nil
}

func genresFromRows(rows []namedRow) ([]*domain.Genre, error) {
	out := make([]*domain.Genre, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].record()
		if err != nil {
			return nil, fmt.Errorf("scan genre %s: %w", rows[i].ID, err)
		}
		out = append(out, &domain.Genre{Record: rec, Name: rows[i].Name})
	}
	return out, nil
}

// CreateGenre inserts a new genre.
// Returns store.ErrAlreadyExists if the name is taken.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	if err := s.stampNew(&g.Record, func() (string, error) { return id.Generate(id.PrefixGenre) }); err != nil {
		return err
	}

	_, err := s.exec(ctx, s.db, s.dialect.Insert("genres").Rows(goqu.Record{
		"id":         g.ID,
		"created_at": formatTime(g.CreatedAt),
		"updated_at": formatTime(g.UpdatedAt),
		"name":       g.Name,
	}).Prepared(true))
	return writeErr(err)
}

// GetGenre retrieves a genre by ID.
func (s *Store) GetGenre(ctx context.Context, genreID string) (*domain.Genre, error) {
	var row namedRow
	ds := s.dialect.From("genres").Select(namedColumns...).Where(goqu.C("id").Eq(genreID))
	if err := s.selectOne(ctx, s.db, &row, ds); err != nil {
		return nil, err
	}
	genres, err := genresFromRows([]namedRow{row})
	if err != nil {
		return nil, err
	}
	return genres[0], nil
}

// ListGenres returns every genre ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	var rows []namedRow
	ds := s.dialect.From("genres").Select(namedColumns...).Order(goqu.C("name").Asc())
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genresFromRows(rows)
}

// CountGenres returns the number of genres.
func (s *Store) CountGenres(ctx context.Context) (int, error) {
	return s.count(ctx, s.dialect.From("genres").Select(goqu.COUNT(goqu.Star())))
}

// CountGenresMatching counts genres whose name contains term, ignoring case.
func (s *Store) CountGenresMatching(ctx context.Context, term string) (int, error) {
	return s.count(ctx, s.dialect.From("genres").
		Select(goqu.COUNT(goqu.Star())).
		Where(s.containsFold(goqu.C("name"), term)))
}

// CountBooksInGenresMatching counts distinct books tagged with at least one
// genre whose name contains term, ignoring case.
func (s *Store) CountBooksInGenresMatching(ctx context.Context, term string) (int, error) {
	return s.count(ctx, s.dialect.From(goqu.T("book_genres").As("bg")).
		Join(goqu.T("genres").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("bg.genre_id")))).
		Select(goqu.COUNT(goqu.DISTINCT(goqu.I("bg.book_id")))).
		Where(s.containsFold(goqu.I("g.name"), term)))
}

type bookGenreRow struct {
	namedRow
	BookID string `db:"book_id"`
}

// genresByBook loads the genres of each book in link order.
func (s *Store) genresByBook(ctx context.Context, bookIDs []string) (map[string][]*domain.Genre, error) {
	out := make(map[string][]*domain.Genre, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	var rows []bookGenreRow
	ds := s.dialect.From(goqu.T("book_genres").As("bg")).
		Join(goqu.T("genres").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("bg.genre_id")))).
		Select(
			goqu.I("bg.book_id").As("book_id"),
			goqu.I("g.id").As("id"),
			goqu.I("g.created_at").As("created_at"),
			goqu.I("g.updated_at").As("updated_at"),
			goqu.I("g.name").As("name"),
		).
		Where(goqu.I("bg.book_id").In(bookIDs)).
		Order(goqu.I("bg.book_id").Asc(), goqu.I("bg.position").Asc(), goqu.I("g.name").Asc())
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, err
	}

	for i := range rows {
		rec, err := rows[i].record()
		if err != nil {
			return nil, fmt.Errorf("scan genre %s: %w", rows[i].ID, err)
		}
		out[rows[i].BookID] = append(out[rows[i].BookID], &domain.Genre{Record: rec, Name: rows[i].Name})
	}
	return out, nil
}
