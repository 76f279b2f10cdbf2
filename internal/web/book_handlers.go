package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/service"
)

// bookFormPage is the data for book_form.html. Book is nil on create.
type bookFormPage struct {
	Book    *domain.Book
	Form    service.BookForm
	Choices *service.BookChoices
	Fields  domainerrors.FieldErrors
	Error   string
}

// bookDeletePage is the data for book_confirm_delete.html.
type bookDeletePage struct {
	Book   *domain.Book
	Copies []*domain.BookInstance
	Error  string
}

// renderBookForm loads the select options and renders the form.
func (s *Server) renderBookForm(w http.ResponseWriter, r *http.Request, status int, data bookFormPage) {
	choices, err := s.services.Catalog.BookChoices(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	data.Choices = choices
	s.render(w, r, status, "book_form", data)
}

// GET /book/create/
func (s *Server) handleBookCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderBookForm(w, r, http.StatusOK, bookFormPage{})
}

// POST /book/create/
func (s *Server) handleBookCreate(w http.ResponseWriter, r *http.Request) {
	form := bookFormFrom(r)

	b, err := s.services.Books.Create(r.Context(), form)
	if err != nil {
		s.bookFormError(w, r, bookFormPage{Form: form}, err)
		return
	}
	http.Redirect(w, r, "/book/"+b.ID, http.StatusFound)
}

// GET /book/{id}/update/
func (s *Server) handleBookUpdatePage(w http.ResponseWriter, r *http.Request) {
	b, err := s.services.Books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderBookForm(w, r, http.StatusOK, bookFormPage{Book: b, Form: service.BookFormFrom(b)})
}

// POST /book/{id}/update/
func (s *Server) handleBookUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, err := s.services.Books.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	form := bookFormFrom(r)
	b, err := s.services.Books.Update(ctx, current.ID, form)
	if err != nil {
		s.bookFormError(w, r, bookFormPage{Book: current, Form: form}, err)
		return
	}
	http.Redirect(w, r, "/book/"+b.ID, http.StatusFound)
}

func (s *Server) bookFormError(w http.ResponseWriter, r *http.Request, data bookFormPage, err error) {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation:
		data.Fields = domainerrors.FieldErrorsOf(err)
		if data.Fields == nil {
			data.Error = messageOf(err)
		}
		s.renderBookForm(w, r, http.StatusBadRequest, data)
	case domainerrors.CodeConflict:
		data.Error = messageOf(err)
		s.renderBookForm(w, r, http.StatusConflict, data)
	default:
		s.handleError(w, r, err)
	}
}

// GET /book/{id}/delete/
func (s *Server) handleBookDeletePage(w http.ResponseWriter, r *http.Request) {
	b, err := s.services.Books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "book_confirm_delete", bookDeletePage{Book: b})
}

// handleBookDelete removes a book with no copies. Otherwise the confirm
// page is shown again with the copies that block the delete.
// POST /book/{id}/delete/
func (s *Server) handleBookDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := s.services.Books.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	err = s.services.Books.Delete(ctx, b.ID)
	if err == nil {
		http.Redirect(w, r, "/books/", http.StatusFound)
		return
	}
	if domainerrors.CodeOf(err) != domainerrors.CodeConflict {
		s.handleError(w, r, err)
		return
	}

	data := bookDeletePage{Book: b, Error: messageOf(err)}
	if detail, derr := s.services.Catalog.GetBook(ctx, b.ID); derr == nil {
		data.Copies = detail.Copies
	}
	s.render(w, r, http.StatusConflict, "book_confirm_delete", data)
}
