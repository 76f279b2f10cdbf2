package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/service"
)

// authorFormPage is the data for author_form.html. Author is nil on create.
type authorFormPage struct {
	Author *domain.Author
	Form   service.AuthorForm
	Fields domainerrors.FieldErrors
	Error  string
}

// authorDeletePage is the data for author_confirm_delete.html.
type authorDeletePage struct {
	Author *domain.Author
	Books  []*domain.Book
	Error  string
}

// GET /author/create/
func (s *Server) handleAuthorCreatePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "author_form", authorFormPage{})
}

// POST /author/create/
func (s *Server) handleAuthorCreate(w http.ResponseWriter, r *http.Request) {
	form := authorFormFrom(r)

	a, err := s.services.Authors.Create(r.Context(), form)
	if err != nil {
		s.authorFormError(w, r, authorFormPage{Form: form}, err)
		return
	}
	http.Redirect(w, r, "/author/"+a.ID, http.StatusFound)
}

// GET /author/{id}/update/
func (s *Server) handleAuthorUpdatePage(w http.ResponseWriter, r *http.Request) {
	a, err := s.services.Authors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "author_form", authorFormPage{Author: a, Form: service.AuthorFormFrom(a)})
}

// POST /author/{id}/update/
func (s *Server) handleAuthorUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, err := s.services.Authors.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	form := authorFormFrom(r)
	a, err := s.services.Authors.Update(ctx, current.ID, form)
	if err != nil {
		s.authorFormError(w, r, authorFormPage{Author: current, Form: form}, err)
		return
	}
	http.Redirect(w, r, "/author/"+a.ID, http.StatusFound)
}

// authorFormError re-renders the form for validation and conflict errors.
func (s *Server) authorFormError(w http.ResponseWriter, r *http.Request, data authorFormPage, err error) {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation:
		data.Fields = domainerrors.FieldErrorsOf(err)
		if data.Fields == nil {
			data.Error = messageOf(err)
		}
		s.render(w, r, http.StatusBadRequest, "author_form", data)
	case domainerrors.CodeConflict:
		data.Error = messageOf(err)
		s.render(w, r, http.StatusConflict, "author_form", data)
	default:
		s.handleError(w, r, err)
	}
}

// GET /author/{id}/delete/
func (s *Server) handleAuthorDeletePage(w http.ResponseWriter, r *http.Request) {
	a, err := s.services.Authors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "author_confirm_delete", authorDeletePage{Author: a})
}

// handleAuthorDelete removes an author with no books. An author who still
// has books is not deleted; the confirm page lists the books instead.
// POST /author/{id}/delete/
func (s *Server) handleAuthorDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := s.services.Authors.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	err = s.services.Authors.Delete(ctx, a.ID)
	if err == nil {
		http.Redirect(w, r, "/authors/", http.StatusFound)
		return
	}
	if domainerrors.CodeOf(err) != domainerrors.CodeConflict {
		s.handleError(w, r, err)
		return
	}

	data := authorDeletePage{Author: a, Error: messageOf(err)}
	if detail, derr := s.services.Catalog.GetAuthor(ctx, a.ID); derr == nil {
		data.Books = detail.Books
	}
	s.render(w, r, http.StatusConflict, "author_confirm_delete", data)
}

// messageOf returns the user-facing message of a domain error.
func messageOf(err error) string {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Something went wrong. Please try again later."
}
