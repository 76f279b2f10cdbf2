// Package web serves the library's HTML pages.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/search"
	"github.com/locallibrary/locallibrary-server/internal/service"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// Services groups the business services used by the page handlers.
type Services struct {
	Catalog *service.CatalogService
	Search  *service.SearchService
	Loans   *service.LoanService
	Authors *service.AuthorService
	Books   *service.BookService
	Auth    *service.AuthService
}

// Options carries the parts of the server that are not page services.
type Options struct {
	// CORSOrigins are allowed to read /health. Empty disables CORS.
	CORSOrigins []string
	// Store and Index are checked by /health. Index is nil with the store backend.
	Store store.Store
	Index *search.Index
	// Sessions is checked by /health.
	Sessions *session.Store
	// TrustProxy takes the client address from forwarded headers. Only set
	// it behind a proxy that overwrites them.
	TrustProxy bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	sessions *session.Manager
	renderer *Renderer
	opts     Options
	router   *chi.Mux
	log      *logger.Logger
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sessions *session.Manager, renderer *Renderer, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		services: services,
		sessions: sessions,
		renderer: renderer,
		opts:     opts,
		router:   chi.NewRouter(),
		log:      log,
		logger:   log.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.log.RequestLogger())
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.StripSlashes)
}

// setupRoutes configures all HTTP routes. Paths keep their trailing slash
// in links; StripSlashes lets both spellings reach the same handler.
func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		if len(s.opts.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.opts.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodHead},
				MaxAge:         300,
			}))
		}
		r.Get("/health", s.handleHealthCheck)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.loadSession)

		r.Get("/", s.handleHome)
		r.Get("/books", s.handleBookList)
		r.Get("/book/{id}", s.handleBookDetail)
		r.Get("/authors", s.handleAuthorList)
		r.Get("/author/{id}", s.handleAuthorDetail)
		r.Get("/search", s.handleSearch)

		r.Get("/accounts/login", s.handleLoginPage)
		r.Post("/accounts/login", s.handleLogin)
		r.Post("/accounts/logout", s.handleLogout)

		r.With(s.require(LoginRequired)).Get("/mybooks", s.handleMyBooks)

		r.Group(func(r chi.Router) {
			r.Use(s.require(PermissionRequired(domain.PermMarkReturned)))
			r.Get("/allbooks", s.handleAllBorrowed)
			r.Get("/book/{id}/renew", s.handleRenewPage)
			r.Post("/book/{id}/renew", s.handleRenew)
		})

		r.With(s.require(PermissionRequired(domain.PermAddAuthor))).Route("/author/create", func(r chi.Router) {
			r.Get("/", s.handleAuthorCreatePage)
			r.Post("/", s.handleAuthorCreate)
		})
		r.With(s.require(PermissionRequired(domain.PermChangeAuthor))).Route("/author/{id}/update", func(r chi.Router) {
			r.Get("/", s.handleAuthorUpdatePage)
			r.Post("/", s.handleAuthorUpdate)
		})
		r.With(s.require(PermissionRequired(domain.PermDeleteAuthor))).Route("/author/{id}/delete", func(r chi.Router) {
			r.Get("/", s.handleAuthorDeletePage)
			r.Post("/", s.handleAuthorDelete)
		})

		r.With(s.require(PermissionRequired(domain.PermAddBook))).Route("/book/create", func(r chi.Router) {
			r.Get("/", s.handleBookCreatePage)
			r.Post("/", s.handleBookCreate)
		})
		r.With(s.require(PermissionRequired(domain.PermChangeBook))).Route("/book/{id}/update", func(r chi.Router) {
			r.Get("/", s.handleBookUpdatePage)
			r.Post("/", s.handleBookUpdate)
		})
		r.With(s.require(PermissionRequired(domain.PermDeleteBook))).Route("/book/{id}/delete", func(r chi.Router) {
			r.Get("/", s.handleBookDeletePage)
			r.Post("/", s.handleBookDelete)
		})

		r.NotFound(s.handleNotFound)
		r.MethodNotAllowed(s.handleMethodNotAllowed)
	})
}
