package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/store"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

// BookService creates, edits and deletes books.
type BookService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{store: store, validator: validator, logger: logger}
}

// Get loads a book for editing or deletion.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "Book not found")
	}
	return b, nil
}

// Create validates form and stores a new book with its genres.
func (s *BookService) Create(ctx context.Context, form BookForm) (*domain.Book, error) {
	b := &domain.Book{}
	if err := s.bind(ctx, &form, b); err != nil {
		return nil, err
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("book created", "book_id", b.ID, "title", b.Title)
	return b, nil
}

// Update validates form and overwrites the book's fields and genres.
func (s *BookService) Update(ctx context.Context, bookID string, form BookForm) (*domain.Book, error) {
	b, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.bind(ctx, &form, b); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBook(ctx, b); err != nil {
		return nil, notFound(err, "Book not found")
	}

	s.logger.Info("book updated", "book_id", b.ID)
	return b, nil
}

// Delete removes a book and its genre links. It fails with a conflict while
// copies of the book exist.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	err := s.store.DeleteBook(ctx, bookID)
	switch {
	case err == nil:
		s.logger.Info("book deleted", "book_id", bookID)
		return nil
	case errors.Is(err, store.ErrInUse):
		return domainerrors.Conflict("This book cannot be deleted while copies of it exist.").WithCause(err)
	default:
		return notFound(err, "Book not found")
	}
}

// bind validates form, resolves its references and copies it onto b.
func (s *BookService) bind(ctx context.Context, form *BookForm, b *domain.Book) error {
	form.normalize()
	if err := s.validator.Validate(form); err != nil {
		return err
	}

	fields := make(domainerrors.FieldErrors)

	if form.Author != "" {
		if _, err := s.store.GetAuthor(ctx, form.Author); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("failed to load author: %w", err)
			}
			fields.Add("author", "Select a valid choice.")
		}
	}

	if form.Language != "" {
		if _, err := s.store.GetLanguage(ctx, form.Language); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("failed to load language: %w", err)
			}
			fields.Add("language", "Select a valid choice.")
		}
	}

	genres := make([]*domain.Genre, 0, len(form.Genres))
	for _, genreID := range form.Genres {
		g, err := s.store.GetGenre(ctx, genreID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("failed to load genre: %w", err)
			}
			fields.Add("genre", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", genreID))
			continue
		}
		genres = append(genres, g)
	}

	if len(fields) > 0 {
		return domainerrors.ValidationWithDetails("please correct the errors below", fields)
	}

	b.Title = form.Title
	b.Summary = form.Summary
	b.ISBN = form.ISBN
	b.AuthorID = form.Author
	b.LanguageID = form.Language
	b.Genres = genres
	return nil
}
