package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/store"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

// AuthorService creates, edits and deletes authors.
type AuthorService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthorService creates a new author service.
func NewAuthorService(store store.Store, validator *validation.Validator, logger *slog.Logger) *AuthorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorService{store: store, validator: validator, logger: logger}
}

// Get loads an author for editing or deletion.
func (s *AuthorService) Get(ctx context.Context, authorID string) (*domain.Author, error) {
	a, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		return nil, notFound(err, "Author not found")
	}
	return a, nil
}

// Create validates form and stores a new author.
func (s *AuthorService) Create(ctx context.Context, form AuthorForm) (*domain.Author, error) {
	form.normalize()
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}

	a := &domain.Author{}
	if err := form.apply(a); err != nil {
		return nil, err
	}
	if err := s.store.CreateAuthor(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("author created", "author_id", a.ID, "name", a.FullName())
	return a, nil
}

// Update validates form and overwrites the author's fields.
func (s *AuthorService) Update(ctx context.Context, authorID string, form AuthorForm) (*domain.Author, error) {
	a, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}

	form.normalize()
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}
	if err := form.apply(a); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAuthor(ctx, a); err != nil {
		return nil, notFound(err, "Author not found")
	}

	s.logger.Info("author updated", "author_id", a.ID)
	return a, nil
}

// Delete removes an author. It fails with a conflict while books still
// name the author; those books are left untouched.
func (s *AuthorService) Delete(ctx context.Context, authorID string) error {
	err := s.store.DeleteAuthor(ctx, authorID)
	switch {
	case err == nil:
		s.logger.Info("author deleted", "author_id", authorID)
		return nil
	case errors.Is(err, store.ErrInUse):
		return domainerrors.Conflict("This author cannot be deleted while books are listed under them. Delete or reassign those books first.").WithCause(err)
	default:
		return notFound(err, "Author not found")
	}
}
