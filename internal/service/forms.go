package service

import (
	"time"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/normalize"
)

// AuthorForm lists the author fields a user may set. Create and update
// accept exactly these.
type AuthorForm struct {
	FirstName   string `form:"first_name" validate:"required,max=100"`
	LastName    string `form:"last_name" validate:"required,max=100"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath string `form:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

// AuthorFormFrom prefills the form from a stored author.
func AuthorFormFrom(a *domain.Author) AuthorForm {
	return AuthorForm{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DateOfBirth: domain.FormatDate(a.DateOfBirth),
		DateOfDeath: domain.FormatDate(a.DateOfDeath),
	}
}

func (f *AuthorForm) normalize() {
	f.FirstName = normalize.Text(f.FirstName)
	f.LastName = normalize.Text(f.LastName)
	f.DateOfBirth = normalize.Text(f.DateOfBirth)
	f.DateOfDeath = normalize.Text(f.DateOfDeath)
}

// apply copies the validated form onto a.
func (f *AuthorForm) apply(a *domain.Author) error {
	birth, err := parseOptionalDate(f.DateOfBirth)
	if err != nil {
		return err
	}
	death, err := parseOptionalDate(f.DateOfDeath)
	if err != nil {
		return err
	}

	a.FirstName = f.FirstName
	a.LastName = f.LastName
	a.DateOfBirth = birth
	a.DateOfDeath = death

	if a.DiedBeforeBirth() {
		return domainerrors.ValidationWithDetails("please correct the errors below", domainerrors.FieldErrors{
			"date_of_death": "Date of death cannot be before date of birth.",
		})
	}
	return nil
}

// BookForm lists the book fields a user may set.
type BookForm struct {
	Title    string   `form:"title" validate:"required,max=200"`
	Summary  string   `form:"summary" validate:"required,max=1000"`
	ISBN     string   `form:"isbn" validate:"required,max=13"`
	Author   string   `form:"author"`
	Language string   `form:"language"`
	Genres   []string `form:"genre"`
}

// BookFormFrom prefills the form from a stored book.
func BookFormFrom(b *domain.Book) BookForm {
	return BookForm{
		Title:    b.Title,
		Summary:  b.Summary,
		ISBN:     b.ISBN,
		Author:   b.AuthorID,
		Language: b.LanguageID,
		Genres:   b.GenreIDs(),
	}
}

// HasGenre reports whether genreID is selected, for checkbox rendering.
func (f BookForm) HasGenre(genreID string) bool {
	for _, g := range f.Genres {
		if g == genreID {
			return true
		}
	}
	return false
}

func (f *BookForm) normalize() {
	f.Title = normalize.Text(f.Title)
	f.Summary = normalize.Summary(f.Summary)
	f.ISBN = normalize.Text(f.ISBN)
	f.Author = normalize.Text(f.Author)
	f.Language = normalize.Text(f.Language)

	genres := f.Genres[:0]
	for _, g := range f.Genres {
		if g = normalize.Text(g); g != "" {
			genres = append(genres, g)
		}
	}
	f.Genres = genres
}

// RenewForm carries the new due date for a copy.
type RenewForm struct {
	RenewalDate string `form:"renewal_date" validate:"required,datetime=2006-01-02"`
}

// LoginForm carries submitted credentials.
type LoginForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, domainerrors.Validation("invalid date").WithCause(err)
	}
	return &t, nil
}
