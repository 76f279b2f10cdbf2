package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/http/response"
)

// page is the root value every template receives.
type page struct {
	User *domain.User
	Path string
	Data any
}

// Can reports whether the current user holds perm.
func (p page) Can(perm string) bool {
	return p.User != nil && p.User.HasPerm(domain.Permission(perm))
}

// errorPage is the data for error.html.
type errorPage struct {
	Title   string
	Message string
}

// render writes a page for the current visitor. Template failures are
// logged and answered with a plain 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	p := page{User: stateFrom(r).User, Path: r.URL.RequestURI(), Data: data}
	if err := s.renderer.Render(w, status, name, p); err != nil {
		s.logger.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderStatus writes the error page, or a JSON envelope for JSON clients.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	if wantsJSON(r) {
		response.Error(w, status, message, s.logger)
		return
	}
	s.render(w, r, status, "error", errorPage{Title: title, Message: message})
}

// handleError maps err onto an error page. Validation and conflict errors
// that belong to a form are handled by the form handlers before this point.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if wantsJSON(r) {
		response.HandleError(w, err, s.logger)
		return
	}

	var de *domainerrors.Error
	if !errors.As(err, &de) {
		s.logger.Error("Unhandled error", "path", r.URL.Path, "error", err)
		s.renderStatus(w, r, http.StatusInternalServerError, "Server error", "Something went wrong. Please try again later.")
		return
	}

	switch de.Code {
	case domainerrors.CodeNotFound:
		s.renderStatus(w, r, http.StatusNotFound, "Not found", de.Message)
	case domainerrors.CodeForbidden:
		s.renderStatus(w, r, http.StatusForbidden, "Forbidden", de.Message)
	case domainerrors.CodeUnauthenticated:
		http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusFound)
	case domainerrors.CodeValidation, domainerrors.CodeInvalidCredentials:
		s.renderStatus(w, r, http.StatusBadRequest, "Bad request", de.Message)
	case domainerrors.CodeConflict:
		s.renderStatus(w, r, http.StatusConflict, "Conflict", de.Message)
	case domainerrors.CodeRateLimited:
		s.renderStatus(w, r, http.StatusTooManyRequests, "Too many requests", de.Message)
	default:
		s.logger.Error("Unhandled error", "path", r.URL.Path, "error", err)
		s.renderStatus(w, r, http.StatusInternalServerError, "Server error", "Something went wrong. Please try again later.")
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, "Not found", "The requested page does not exist.")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed", "This page does not accept "+r.Method+" requests.")
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// pageNumber reads ?page=. Anything that is not a positive number is a 404.
func pageNumber(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domainerrors.NotFound("Invalid page")
	}
	return n, nil
}
