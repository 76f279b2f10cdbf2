package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/service"
)

// renewPage is the data for renew.html.
type renewPage struct {
	Copy   *domain.BookInstance
	Form   service.RenewForm
	Fields domainerrors.FieldErrors
	Error  string
}

// GET /mybooks/
func (s *Server) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	n, err := pageNumber(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	copies, err := s.services.Loans.MyBooks(r.Context(), stateFrom(r).User, n)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "mybooks", copies)
}

// GET /allbooks/
func (s *Server) handleAllBorrowed(w http.ResponseWriter, r *http.Request) {
	n, err := pageNumber(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	copies, err := s.services.Loans.AllBorrowed(r.Context(), n)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "allbooks", copies)
}

// handleRenewPage shows the renewal form, proposing three weeks from today.
// GET /book/{id}/renew/
func (s *Server) handleRenewPage(w http.ResponseWriter, r *http.Request) {
	bi, err := s.services.Loans.GetCopy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	proposed := service.DefaultRenewalDate(time.Now())
	s.render(w, r, http.StatusOK, "renew", renewPage{
		Copy: bi,
		Form: service.RenewForm{RenewalDate: domain.FormatDate(&proposed)},
	})
}

// handleRenew stores the new due date and returns to the loan list.
// POST /book/{id}/renew/
func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bi, err := s.services.Loans.GetCopy(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	form := renewFormFrom(r)
	due, err := s.services.Loans.ParseRenewal(form)
	if err != nil {
		if fields := domainerrors.FieldErrorsOf(err); fields != nil {
			s.render(w, r, http.StatusBadRequest, "renew", renewPage{Copy: bi, Form: form, Fields: fields})
			return
		}
		s.handleError(w, r, err)
		return
	}

	if _, err := s.services.Loans.RenewCopy(ctx, bi.ID, due); err != nil {
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/allbooks/", http.StatusFound)
}
