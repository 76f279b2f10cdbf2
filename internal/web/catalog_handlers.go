package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleHome shows the catalog counters and bumps the visit counter.
// The page shows the count from before this visit.
// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := stateFrom(r).Session

	q := r.URL.Query().Get("q")

	visits := sess.Visits
	sess.Visits++
	if err := s.sessions.Save(ctx, w, sess); err != nil {
		s.logger.Warn("Failed to save session", "error", err)
	}

	stats, err := s.services.Catalog.HomeStats(ctx, q, visits)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index", stats)
}

// GET /books/
func (s *Server) handleBookList(w http.ResponseWriter, r *http.Request) {
	n, err := pageNumber(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	list, err := s.services.Catalog.ListBooks(r.Context(), n)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "book_list", list)
}

// GET /book/{id}
func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.services.Catalog.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "book_detail", detail)
}

// GET /authors/
func (s *Server) handleAuthorList(w http.ResponseWriter, r *http.Request) {
	n, err := pageNumber(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	authors, err := s.services.Catalog.ListAuthors(r.Context(), n)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "author_list", authors)
}

// GET /author/{id}
func (s *Server) handleAuthorDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.services.Catalog.GetAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "author_detail", detail)
}

// GET /search/?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.services.Search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "search", results)
}
