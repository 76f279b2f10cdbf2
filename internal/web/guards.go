package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/session"
)

// Decision is the outcome of a Guard.
type Decision int

// Guard outcomes.
const (
	Allow Decision = iota
	RedirectLogin
	Forbid
)

// Guard decides whether user (nil for anonymous visitors) may reach a page.
type Guard func(user *domain.User) Decision

// LoginRequired admits any signed-in user.
func LoginRequired(user *domain.User) Decision {
	if user == nil {
		return RedirectLogin
	}
	return Allow
}

// PermissionRequired admits signed-in users holding every perm. Anonymous
// visitors are sent to the login page; signed-in users without the
// permission get a 403.
func PermissionRequired(perms ...domain.Permission) Guard {
	return func(user *domain.User) Decision {
		if user == nil {
			return RedirectLogin
		}
		if !user.HasPerms(perms...) {
			return Forbid
		}
		return Allow
	}
}

// requestState is what the session middleware learns about the visitor.
type requestState struct {
	Session *session.Session
	User    *domain.User
}

type contextKey string

const contextKeyState contextKey = "request_state"

func withState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, contextKeyState, st)
}

// stateFrom returns the visitor state attached by loadSession. Requests that
// bypassed the middleware get an anonymous state.
func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(contextKeyState).(*requestState); ok {
		return st
	}
	return &requestState{}
}

// loadSession attaches the visitor's session and user to the request.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Load(r)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		user, err := s.services.Auth.CurrentUser(r.Context(), sess)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withState(r.Context(), &requestState{Session: sess, User: user})))
	})
}

// require enforces g before the wrapped handler runs.
func (s *Server) require(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch g(stateFrom(r).User) {
			case Allow:
				next.ServeHTTP(w, r)
			case RedirectLogin:
				http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusFound)
			default:
				s.renderStatus(w, r, http.StatusForbidden, "Forbidden", "You do not have permission to view this page.")
			}
		})
	}
}

func loginURL(next string) string {
	return "/accounts/login/?" + url.Values{"next": {next}}.Encode()
}

// safeNext returns next when it is a path on this site, otherwise "/".
func safeNext(next string) string {
	if next == "" {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || len(next) < 1 || next[0] != '/' {
		return "/"
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return "/"
	}
	return next
}
