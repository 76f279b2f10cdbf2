package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/store"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

// RenewalPeriod is how far ahead the renewal form proposes the new due date.
const RenewalPeriod = 21 * 24 * time.Hour

// DefaultRenewalDate returns the date offered by the renewal form:
// three weeks after the day containing now.
func DefaultRenewalDate(now time.Time) time.Time {
	return domain.Today(now).AddDate(0, 0, int(RenewalPeriod/(24*time.Hour)))
}

// LoanService covers borrowed copies and renewals.
type LoanService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLoanService creates a new loan service.
func NewLoanService(store store.Store, validator *validation.Validator, logger *slog.Logger) *LoanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanService{store: store, validator: validator, logger: logger}
}

// MyBooks pages through the copies on loan to user, soonest due first.
func (s *LoanService) MyBooks(ctx context.Context, user *domain.User, page int) (*store.Page[*domain.BookInstance], error) {
	p, err := s.store.ListBorrowedByUser(ctx, user.ID, store.PageParams{Page: page, PerPage: LoansPerPage})
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowed copies: %w", err)
	}
	if err := checkPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AllBorrowed pages through every copy on loan, soonest due first.
func (s *LoanService) AllBorrowed(ctx context.Context, page int) (*store.Page[*domain.BookInstance], error) {
	p, err := s.store.ListOnLoan(ctx, store.PageParams{Page: page, PerPage: LoansPerPage})
	if err != nil {
		return nil, fmt.Errorf("failed to list copies on loan: %w", err)
	}
	if err := checkPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetCopy loads a copy with its book.
func (s *LoanService) GetCopy(ctx context.Context, copyID string) (*domain.BookInstance, error) {
	bi, err := s.store.GetInstance(ctx, copyID)
	if err != nil {
		return nil, notFound(err, "Copy not found")
	}
	return bi, nil
}

// ParseRenewal validates the renewal form and returns the requested date.
// Any well-formed date is accepted, including dates in the past.
func (s *LoanService) ParseRenewal(form RenewForm) (time.Time, error) {
	if err := s.validator.Validate(form); err != nil {
		return time.Time{}, err
	}
	due, err := parseOptionalDate(form.RenewalDate)
	if err != nil {
		return time.Time{}, err
	}
	return *due, nil
}

// RenewCopy overwrites the due date of a copy. Status and borrower are left
// alone and concurrent renewals simply overwrite one another.
func (s *LoanService) RenewCopy(ctx context.Context, copyID string, due time.Time) (*domain.BookInstance, error) {
	if err := s.store.UpdateDueBack(ctx, copyID, due); err != nil {
		return nil, notFound(err, "Copy not found")
	}

	bi, err := s.store.GetInstance(ctx, copyID)
	if err != nil {
		return nil, notFound(err, "Copy not found")
	}

	s.logger.Info("copy renewed", "copy_id", copyID, "due_back", domain.FormatDate(bi.DueBack))
	return bi, nil
}
