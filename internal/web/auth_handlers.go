package web

import (
	"net"
	"net/http"

	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/service"
)

// loginPage is the data for login.html.
type loginPage struct {
	Form   service.LoginForm
	Next   string
	Fields domainerrors.FieldErrors
	Error  string
}

// GET /accounts/login/
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", loginPage{Next: r.URL.Query().Get("next")})
}

// handleLogin signs the visitor in and follows ?next= when it stays on
// this site. Attempts are throttled per client address.
// POST /accounts/login/
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := loginFormFrom(r)
	next := r.PostFormValue("next")

	_, _, err := s.services.Auth.Login(ctx, w, stateFrom(r).Session, form, clientKey(r))
	if err == nil {
		http.Redirect(w, r, safeNext(next), http.StatusFound)
		return
	}

	data := loginPage{Form: service.LoginForm{Username: form.Username}, Next: next}
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation:
		data.Fields = domainerrors.FieldErrorsOf(err)
		s.render(w, r, http.StatusBadRequest, "login", data)
	case domainerrors.CodeInvalidCredentials:
		data.Error = messageOf(err)
		s.render(w, r, http.StatusBadRequest, "login", data)
	case domainerrors.CodeRateLimited:
		data.Error = messageOf(err)
		s.render(w, r, http.StatusTooManyRequests, "login", data)
	default:
		s.handleError(w, r, err)
	}
}

// POST /accounts/logout/
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Auth.Logout(r.Context(), w, stateFrom(r).Session); err != nil {
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// clientKey identifies the client for login throttling. RemoteAddr is the
// socket peer unless the server trusts a proxy to forward it.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
