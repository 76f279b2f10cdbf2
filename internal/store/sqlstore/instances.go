package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// instanceColumns must match the db tags of instanceRow.
var instanceColumns = []any{"id", "created_at", "updated_at", "book_id", "imprint", "due_back", "status", "borrower_id"}

type instanceRow struct {
	ID         string         `db:"id"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
	BookID     string         `db:"book_id"`
	Imprint    string         `db:"imprint"`
	DueBack    sql.NullString `db:"due_back"`
	Status     string         `db:"status"`
	BorrowerID sql.NullString `db:"borrower_id"`
}

func (r *instanceRow) toDomain() (*domain.BookInstance, error) {
	bi := &domain.BookInstance{
		BookID:     r.BookID,
		Imprint:    r.Imprint,
		Status:     domain.LoanStatus(r.Status),
		BorrowerID: r.BorrowerID.String,
	}
	bi.ID = r.ID

	var err error
	if bi.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if bi.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if bi.DueBack, err = parseNullableDate(r.DueBack); err != nil {
		return nil, err
	}
	return bi, nil
}

// byDueBack orders copies by due date with undated copies last.
func byDueBack() []exp.OrderedExpression {
	return []exp.OrderedExpression{
		goqu.L("? IS NULL", goqu.C("due_back")).Asc(),
		goqu.C("due_back").Asc(),
		goqu.C("id").Asc(),
	}
}

// loadInstances runs ds and attaches the parent book to every copy.
func (s *Store) loadInstances(ctx context.Context, ds *goqu.SelectDataset) ([]*domain.BookInstance, error) {
	var rows []instanceRow
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, err
	}

	copies := make([]*domain.BookInstance, 0, len(rows))
	bookIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for i := range rows {
		bi, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("scan copy %s: %w", rows[i].ID, err)
		}
		copies = append(copies, bi)
		if !seen[bi.BookID] {
			seen[bi.BookID] = true
			bookIDs = append(bookIDs, bi.BookID)
		}
	}

	books, err := s.ListBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	for _, bi := range copies {
		bi.Book = byID[bi.BookID]
	}
	return copies, nil
}

func (s *Store) listInstancePage(ctx context.Context, where []exp.Expression, p store.PageParams) (*store.Page[*domain.BookInstance], error) {
	p.Validate()

	total, err := s.count(ctx, s.dialect.From("book_instances").Select(goqu.COUNT(goqu.Star())).Where(where...))
	if err != nil {
		return nil, err
	}

	ds := s.dialect.From("book_instances").Select(instanceColumns...).
		Where(where...).
		Order(byDueBack()...).
		Limit(uint(p.PerPage)).
		Offset(uint(p.Offset()))

	copies, err := s.loadInstances(ctx, ds)
	if err != nil {
		return nil, err
	}
	return store.NewPage(copies, p, total), nil
}

// CreateInstance inserts a copy. An empty ID gets a fresh UUID and an empty
// status defaults to maintenance.
func (s *Store) CreateInstance(ctx context.Context, bi *domain.BookInstance) error {
	if err := s.stampNew(&bi.Record, id.NewCopyID); err != nil {
		return err
	}
	if bi.Status == "" {
		bi.Status = domain.StatusMaintenance
	}

	_, err := s.exec(ctx, s.db, s.dialect.Insert("book_instances").Rows(goqu.Record{
		"id":          bi.ID,
		"created_at":  formatTime(bi.CreatedAt),
		"updated_at":  formatTime(bi.UpdatedAt),
		"book_id":     bi.BookID,
		"imprint":     bi.Imprint,
		"due_back":    formatDate(bi.DueBack),
		"status":      string(bi.Status),
		"borrower_id": nullable(bi.BorrowerID),
	}).Prepared(true))
	return writeErr(err)
}

// GetInstance retrieves a copy with its book.
// Returns store.ErrNotFound if the copy does not exist.
func (s *Store) GetInstance(ctx context.Context, copyID string) (*domain.BookInstance, error) {
	copies, err := s.loadInstances(ctx, s.dialect.From("book_instances").
		Select(instanceColumns...).
		Where(goqu.C("id").Eq(copyID)))
	if err != nil {
		return nil, fmt.Errorf("get copy: %w", err)
	}
	if len(copies) == 0 {
		return nil, store.ErrNotFound
	}
	return copies[0], nil
}

// ListInstancesByBook returns the copies of a book ordered by due date.
// The parent book is not attached.
func (s *Store) ListInstancesByBook(ctx context.Context, bookID string) ([]*domain.BookInstance, error) {
	var rows []instanceRow
	ds := s.dialect.From("book_instances").Select(instanceColumns...).
		Where(goqu.C("book_id").Eq(bookID)).
		Order(byDueBack()...)
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}

	out := make([]*domain.BookInstance, 0, len(rows))
	for i := range rows {
		bi, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	return out, nil
}

// ListAllInstances returns every copy without its book. It feeds the
// reference availability calculation.
func (s *Store) ListAllInstances(ctx context.Context) ([]*domain.BookInstance, error) {
	var rows []instanceRow
	ds := s.dialect.From("book_instances").Select(instanceColumns...).Order(goqu.C("id").Asc())
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}

	out := make([]*domain.BookInstance, 0, len(rows))
	for i := range rows {
		bi, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	return out, nil
}

// CountInstances returns the number of copies.
func (s *Store) CountInstances(ctx context.Context) (int, error) {
	return s.count(ctx, s.dialect.From("book_instances").Select(goqu.COUNT(goqu.Star())))
}

// CountInstancesByStatus returns the number of copies in a status.
func (s *Store) CountInstancesByStatus(ctx context.Context, status domain.LoanStatus) (int, error) {
	return s.count(ctx, s.dialect.From("book_instances").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("status").Eq(string(status))))
}

// ListBorrowedByUser pages through copies on loan to a user, soonest due first.
func (s *Store) ListBorrowedByUser(ctx context.Context, userID string, p store.PageParams) (*store.Page[*domain.BookInstance], error) {
	page, err := s.listInstancePage(ctx, []exp.Expression{
		goqu.C("borrower_id").Eq(userID),
		goqu.C("status").Eq(string(domain.StatusOnLoan)),
	}, p)
	if err != nil {
		return nil, fmt.Errorf("list borrowed copies: %w", err)
	}
	return page, nil
}

// ListOnLoan pages through every copy on loan, soonest due first.
func (s *Store) ListOnLoan(ctx context.Context, p store.PageParams) (*store.Page[*domain.BookInstance], error) {
	page, err := s.listInstancePage(ctx, []exp.Expression{
		goqu.C("status").Eq(string(domain.StatusOnLoan)),
	}, p)
	if err != nil {
		return nil, fmt.Errorf("list copies on loan: %w", err)
	}
	return page, nil
}

// UpdateDueBack overwrites the due date of a copy. Nothing else changes.
func (s *Store) UpdateDueBack(ctx context.Context, copyID string, due time.Time) error {
	n, err := s.exec(ctx, s.db, s.dialect.Update("book_instances").
		Set(goqu.Record{
			"due_back":   due.Format(domain.DateLayout),
			"updated_at": formatTime(s.now()),
		}).
		Where(goqu.C("id").Eq(copyID)).
		Prepared(true))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type availableRow struct {
	BookID string `db:"book_id"`
	N      int    `db:"n"`
}

// CountAvailableCopies counts, per book, copies with no borrower.
// Books without such copies are absent from the result.
func (s *Store) CountAvailableCopies(ctx context.Context, bookIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	var rows []availableRow
	ds := s.dialect.From("book_instances").
		Select(goqu.C("book_id"), goqu.COUNT(goqu.Star()).As("n")).
		Where(goqu.C("borrower_id").IsNull(), goqu.C("book_id").In(bookIDs)).
		GroupBy(goqu.C("book_id"))
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("count available copies: %w", err)
	}

	for _, r := range rows {
		out[r.BookID] = r.N
	}
	return out, nil
}
