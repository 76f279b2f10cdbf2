package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

func TestAuthorCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Author{FirstName: "J. R. R.", LastName: "Tolkien", DateOfBirth: date(t, "1892-01-03")}
	if err := s.CreateAuthor(ctx, a); err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatal("expected ID and timestamps to be set")
	}

	got, err := s.GetAuthor(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAuthor: %v", err)
	}
	if got.LastName != "Tolkien" || domain.FormatDate(got.DateOfBirth) != "1892-01-03" || got.DateOfDeath != nil {
		t.Errorf("unexpected author: %+v", got)
	}

	got.DateOfDeath = date(t, "1973-09-02")
	if err := s.UpdateAuthor(ctx, got); err != nil {
		t.Fatalf("UpdateAuthor: %v", err)
	}
	got, _ = s.GetAuthor(ctx, a.ID)
	if domain.FormatDate(got.DateOfDeath) != "1973-09-02" {
		t.Errorf("death date not saved: %v", got.DateOfDeath)
	}

	if err := s.DeleteAuthor(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAuthor: %v", err)
	}
	if _, err := s.GetAuthor(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListAuthors_PagedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustAuthor(t, s, "Terry", "Pratchett")
	mustAuthor(t, s, "Isaac", "Asimov")
	mustAuthor(t, s, "Ursula", "Le Guin")

	page, err := s.ListAuthors(ctx, store.PageParams{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("ListAuthors: %v", err)
	}
	if page.Total != 3 || page.NumPages() != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d pages=%d items=%d", page.Total, page.NumPages(), len(page.Items))
	}
	if page.Items[0].LastName != "Asimov" || page.Items[1].LastName != "Le Guin" {
		t.Errorf("unexpected order: %s, %s", page.Items[0], page.Items[1])
	}

	page, err = s.ListAuthors(ctx, store.PageParams{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("ListAuthors page 2: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].LastName != "Pratchett" {
		t.Errorf("unexpected second page: %v", page.Items)
	}
}

func TestDeleteAuthor_BlockedByBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustAuthor(t, s, "J. R. R.", "Tolkien")
	b := mustBook(t, s, "The Hobbit", a)

	err := s.DeleteAuthor(ctx, a.ID)
	if !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	if _, err := s.GetAuthor(ctx, a.ID); err != nil {
		t.Errorf("author should still exist: %v", err)
	}
	got, err := s.GetBook(ctx, b.ID)
	if err != nil || got.AuthorID != a.ID {
		t.Errorf("book should still reference the author: %v %+v", err, got)
	}
}

func TestBookCRUD_WithRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustAuthor(t, s, "Frank", "Herbert")
	sf := mustGenre(t, s, "Science Fiction")
	adv := mustGenre(t, s, "Adventure")
	lang := &domain.Language{Name: "English"}
	if err := s.CreateLanguage(ctx, lang); err != nil {
		t.Fatalf("CreateLanguage: %v", err)
	}

	b := &domain.Book{
		Title: "Dune", Summary: "Spice.", ISBN: "9780441172719",
		AuthorID: a.ID, LanguageID: lang.ID,
		Genres: []*domain.Genre{sf, adv},
	}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	got, err := s.GetBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Author == nil || got.Author.LastName != "Herbert" {
		t.Errorf("author not attached: %+v", got.Author)
	}
	if got.Language == nil || got.Language.Name != "English" {
		t.Errorf("language not attached: %+v", got.Language)
	}
	if got.DisplayGenre() != "Science Fiction, Adventure" {
		t.Errorf("genres = %q", got.DisplayGenre())
	}

	got.Title = "Dune (Deluxe)"
	got.Genres = []*domain.Genre{adv}
	if err := s.UpdateBook(ctx, got); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	got, _ = s.GetBook(ctx, b.ID)
	if got.Title != "Dune (Deluxe)" || got.DisplayGenre() != "Adventure" {
		t.Errorf("update not applied: %q %q", got.Title, got.DisplayGenre())
	}

	if err := s.DeleteBook(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	var links int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM book_genres WHERE book_id = ?", b.ID).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("genre links should cascade, %d left", links)
	}
}

func TestCreateBook_UnknownAuthor(t *testing.T) {
	s := newTestStore(t)

	b := &domain.Book{Title: "Orphan", Summary: "s", ISBN: "1", AuthorID: "author-nope"}
	err := s.CreateBook(context.Background(), b)
	if !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestDeleteBook_BlockedByCopies(t *testing.T) {
	s := newTestStore(t)
	b := mustBook(t, s, "Dracula", nil)
	mustCopy(t, s, b, domain.StatusAvailable, "", nil)

	if err := s.DeleteBook(context.Background(), b.ID); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
}

func TestDeleteLanguage_NullsBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lang := &domain.Language{Name: "Farsi"}
	if err := s.CreateLanguage(ctx, lang); err != nil {
		t.Fatalf("CreateLanguage: %v", err)
	}
	b := &domain.Book{Title: "Rumi", Summary: "s", ISBN: "1", LanguageID: lang.ID}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM languages WHERE id = ?", lang.ID); err != nil {
		t.Fatalf("delete language: %v", err)
	}
	got, err := s.GetBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.LanguageID != "" || got.Language != nil {
		t.Errorf("language should be cleared, got %q", got.LanguageID)
	}
}

func TestGenre_UniqueCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustGenre(t, s, "Fantasy")
	if err := s.CreateGenre(ctx, &domain.Genre{Name: "Fantasy"}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if err := s.CreateGenre(ctx, &domain.Genre{Name: "fantasy"}); err != nil {
		t.Errorf("names differing in case are distinct: %v", err)
	}
}

func TestGenreCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fiction := mustGenre(t, s, "Fiction")
	sf := mustGenre(t, s, "Science Fiction")
	mustGenre(t, s, "Poetry")

	mustBook(t, s, "Dune", nil, fiction, sf)
	mustBook(t, s, "Emma", nil, fiction)
	mustBook(t, s, "Odes", nil)

	n, err := s.CountGenresMatching(ctx, "FICTION")
	if err != nil || n != 2 {
		t.Errorf("CountGenresMatching = %d, %v; want 2", n, err)
	}

	n, err = s.CountBooksInGenresMatching(ctx, "fiction")
	if err != nil || n != 2 {
		t.Errorf("CountBooksInGenresMatching = %d, %v; want 2 distinct books", n, err)
	}

	n, err = s.CountGenres(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountGenres = %d, %v", n, err)
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tolkien := mustAuthor(t, s, "John Ronald Reuel", "Tolkien")
	mustAuthor(t, s, "Christopher", "Tolkien")
	mustAuthor(t, s, "Tolkien", "Fan")
	mustAuthor(t, s, "Émile", "Zola")
	mustAuthor(t, s, "Jane", "Austen")

	mustBook(t, s, "Tolkien: A Biography", nil)
	mustBook(t, s, "The Hobbit", tolkien)
	mustBook(t, s, "100% Pure", nil)

	authors, err := s.SearchAuthors(ctx, "tolkien")
	if err != nil {
		t.Fatalf("SearchAuthors: %v", err)
	}
	if len(authors) != 3 {
		t.Fatalf("expected 3 authors, got %d", len(authors))
	}
	if authors[0].LastName != "Fan" || authors[1].FirstName != "Christopher" {
		t.Errorf("authors not ordered by last, first name: %v", authors)
	}

	books, err := s.SearchBooks(ctx, "TOLKIEN")
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Tolkien: A Biography" {
		t.Errorf("unexpected books: %v", books)
	}

	authors, _ = s.SearchAuthors(ctx, "émile")
	if len(authors) != 1 {
		t.Errorf("non-ASCII case folding failed, got %d authors", len(authors))
	}

	books, _ = s.SearchBooks(ctx, "%")
	if len(books) != 1 || books[0].Title != "100% Pure" {
		t.Errorf("percent must match literally, got %v", books)
	}

	books, _ = s.SearchBooks(ctx, "")
	if books != nil {
		t.Error("empty term must not match")
	}
}

func TestListByIDs_PreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustBook(t, s, "Alpha", nil)
	b := mustBook(t, s, "Beta", nil)

	books, err := s.ListBooksByIDs(ctx, []string{b.ID, "book-missing", a.ID})
	if err != nil {
		t.Fatalf("ListBooksByIDs: %v", err)
	}
	if len(books) != 2 || books[0].ID != b.ID || books[1].ID != a.ID {
		t.Errorf("unexpected order: %v", books)
	}
}

func TestListByIDs_InCatalogOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustBook(t, s, "Alpha", nil)
	b := mustBook(t, s, "Beta", nil)

	books, err := s.ListBooksByIDsInTitleOrder(ctx, []string{b.ID, "book-missing", a.ID})
	if err != nil {
		t.Fatalf("ListBooksByIDsInTitleOrder: %v", err)
	}
	if len(books) != 2 || books[0].ID != a.ID || books[1].ID != b.ID {
		t.Errorf("books not in title order: %v", books)
	}

	shelley := mustAuthor(t, s, "Mary", "Shelley")
	austen := mustAuthor(t, s, "Jane", "Austen")
	authors, err := s.ListAuthorsByIDsInNameOrder(ctx, []string{shelley.ID, austen.ID})
	if err != nil {
		t.Fatalf("ListAuthorsByIDsInNameOrder: %v", err)
	}
	if len(authors) != 2 || authors[0].ID != austen.ID || authors[1].ID != shelley.ID {
		t.Errorf("authors not in name order: %v", authors)
	}
}
