package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
)

func languagesFromRows(rows []namedRow) ([]*domain.Language, error) {
	out := make([]*domain.Language, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].record()
		if err != nil {
			return nil, fmt.Errorf("scan language %s: %w", rows[i].ID, err)
		}
		out = append(out, &domain.Language{Record: rec, Name: rows[i].Name})
	}
	return out, nil
}

// CreateLanguage inserts a new language.
// Returns store.ErrAlreadyExists if the name is taken.
func (s *Store) CreateLanguage(ctx context.Context, l *domain.Language) error {
	if err := s.stampNew(&l.Record, func() (string, error) { return id.Generate(id.PrefixLanguage) }); err != nil {
		return err
	}

	_, err := s.exec(ctx, s.db, s.dialect.Insert("languages").Rows(goqu.Record{
		"id":         l.ID,
		"created_at": formatTime(l.CreatedAt),
		"updated_at": formatTime(l.UpdatedAt),
		"name":       l.Name,
	}).Prepared(true))
	return writeErr(err)
}

// GetLanguage retrieves a language by ID.
func (s *Store) GetLanguage(ctx context.Context, languageID string) (*domain.Language, error) {
	var row namedRow
	ds := s.dialect.From("languages").Select(namedColumns...).Where(goqu.C("id").Eq(languageID))
	if err := s.selectOne(ctx, s.db, &row, ds); err != nil {
		return nil, err
	}
	langs, err := languagesFromRows([]namedRow{row})
	if err != nil {
		return nil, err
	}
	return langs[0], nil
}

// ListLanguages returns every language ordered by name.
func (s *Store) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	var rows []namedRow
	ds := s.dialect.From("languages").Select(namedColumns...).Order(goqu.C("name").Asc())
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return languagesFromRows(rows)
}

func (s *Store) languagesByID(ctx context.Context, ids []string) (map[string]*domain.Language, error) {
	out := make(map[string]*domain.Language, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []namedRow
	ds := s.dialect.From("languages").Select(namedColumns...).Where(goqu.C("id").In(ids))
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, err
	}
	langs, err := languagesFromRows(rows)
	if err != nil {
		return nil, err
	}
	for _, l := range langs {
		out[l.ID] = l
	}
	return out, nil
}
