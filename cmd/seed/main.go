// Package main seeds the catalog with demo data.
//
// It creates a handful of languages, genres, authors, books and copies, plus
// two accounts: "librarian", who holds every catalog permission, and
// "reader", who holds none. Running it against a catalog that already has
// authors only (re)creates the missing accounts.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -password secret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
)

var password = flag.String("password", "library123", "Password for the demo accounts")

type demoBook struct {
	title    string
	summary  string
	isbn     string
	author   string
	language string
	genres   []string
	copies   []demoCopy
}

type demoCopy struct {
	imprint  string
	status   domain.LoanStatus
	borrower string
	dueIn    int // days from today, only for loaned copies
}

var (
	demoLanguages = []string{"English", "French", "Spanish"}
	demoGenres    = []string{"Fantasy", "Science Fiction", "Classic Fiction", "Horror", "Poetry"}

	demoAuthors = []struct {
		first, last, born, died string
	}{
		{"J. R. R.", "Tolkien", "1892-01-03", "1973-09-02"},
		{"Ursula K.", "Le Guin", "1929-10-21", "2018-01-22"},
		{"Mary", "Shelley", "1797-08-30", "1851-02-01"},
		{"Jules", "Verne", "1828-02-08", "1905-03-24"},
		{"Ted", "Chiang", "1967-10-20", ""},
	}

	demoBooks = []demoBook{
		{
			title:    "The Hobbit",
			summary:  "Bilbo Baggins is swept into a quest to reclaim a dwarf kingdom from a dragon.",
			isbn:     "9780261103344",
			author:   "Tolkien",
			language: "English",
			genres:   []string{"Fantasy"},
			copies: []demoCopy{
				{imprint: "Allen & Unwin, 1937", status: domain.StatusAvailable},
				{imprint: "HarperCollins, 1995", status: domain.StatusOnLoan, borrower: "reader", dueIn: 10},
			},
		},
		{
			title:    "A Wizard of Earthsea",
			summary:  "A young mage looses a shadow on the world and must hunt it down.",
			isbn:     "9780547722023",
			author:   "Le Guin",
			language: "English",
			genres:   []string{"Fantasy"},
			copies: []demoCopy{
				{imprint: "Parnassus Press, 1968", status: domain.StatusOnLoan, borrower: "reader", dueIn: -3},
				{imprint: "Puffin, 1971", status: domain.StatusMaintenance},
			},
		},
		{
			title:    "The Left Hand of Darkness",
			summary:  "An envoy struggles to understand the ambisexual people of the planet Gethen.",
			isbn:     "9780441478125",
			author:   "Le Guin",
			language: "English",
			genres:   []string{"Science Fiction"},
			copies: []demoCopy{
				{imprint: "Ace Books, 1969", status: domain.StatusReserved},
			},
		},
		{
			title:    "Frankenstein",
			summary:  "Victor Frankenstein builds a creature and then abandons it.",
			isbn:     "9780486282114",
			author:   "Shelley",
			language: "English",
			genres:   []string{"Horror", "Classic Fiction", "Science Fiction"},
			copies: []demoCopy{
				{imprint: "Lackington, 1818", status: domain.StatusAvailable},
				{imprint: "Dover, 1994", status: domain.StatusAvailable},
				{imprint: "Penguin, 2003", status: domain.StatusOnLoan, borrower: "librarian", dueIn: 21},
			},
		},
		{
			title:    "Vingt mille lieues sous les mers",
			summary:  "Le professeur Aronnax embarque malgré lui à bord du Nautilus.",
			isbn:     "9782253006329",
			author:   "Verne",
			language: "French",
			genres:   []string{"Science Fiction", "Classic Fiction"},
			copies: []demoCopy{
				{imprint: "Hetzel, 1870", status: domain.StatusAvailable},
			},
		},
		{
			title:    "Stories of Your Life and Others",
			summary:  "Eight stories, including the one about the heptapods.",
			isbn:     "9781101972120",
			author:   "Chiang",
			language: "English",
			genres:   []string{"Science Fiction"},
		},
	}
)

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	lg := logger.New(logger.Config{Level: logger.ParseLevel("warn"), Environment: cfg.App.Environment, Writer: os.Stderr})

	fmt.Printf("Opening %s database\n", cfg.Database.Driver)

	st, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	users := createUsers(ctx, st)

	n, err := st.CountAuthors(ctx)
	if err != nil {
		log.Fatalf("Failed to count authors: %v", err)
	}
	if n > 0 {
		fmt.Printf("Catalog already has %d authors, skipping catalog data\n", n)
		return
	}

	seedCatalog(ctx, st, users)
	fmt.Println("\nSeeding complete!")
}

// createUsers returns the demo accounts by username, creating missing ones.
func createUsers(ctx context.Context, st *sqlstore.Store) map[string]*domain.User {
	accounts := []struct {
		username, first, last string
		perms                 []domain.Permission
	}{
		{"librarian", "Lena", "Librarian", domain.LibrarianPermissions},
		{"reader", "Rory", "Reader", nil},
	}

	users := make(map[string]*domain.User, len(accounts))
	for _, a := range accounts {
		existing, err := st.GetUserByUsername(ctx, a.username)
		if err == nil {
			fmt.Printf("User %q already exists\n", a.username)
			users[a.username] = existing
			continue
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			log.Fatalf("Failed to look up user %s: %v", a.username, err)
		}

		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		u := &domain.User{
			Username:     a.username,
			PasswordHash: hash,
			FirstName:    a.first,
			LastName:     a.last,
			Email:        a.username + "@library.example",
			IsStaff:      len(a.perms) > 0,
			IsActive:     true,
			Permissions:  a.perms,
		}
		if err := st.CreateUser(ctx, u); err != nil {
			log.Fatalf("Failed to create user %s: %v", a.username, err)
		}
		fmt.Printf("Created user %q (%d permissions)\n", u.Username, len(u.Permissions))
		users[a.username] = u
	}
	return users
}

func seedCatalog(ctx context.Context, st *sqlstore.Store, users map[string]*domain.User) {
	languages := make(map[string]*domain.Language)
	for _, name := range demoLanguages {
		l := &domain.Language{Name: name}
		if err := st.CreateLanguage(ctx, l); err != nil {
			log.Fatalf("Failed to create language %s: %v", name, err)
		}
		languages[name] = l
	}

	genres := make(map[string]*domain.Genre)
	for _, name := range demoGenres {
		g := &domain.Genre{Name: name}
		if err := st.CreateGenre(ctx, g); err != nil {
			log.Fatalf("Failed to create genre %s: %v", name, err)
		}
		genres[name] = g
	}
	fmt.Printf("Created %d languages and %d genres\n", len(languages), len(genres))

	authors := make(map[string]*domain.Author)
	for _, a := range demoAuthors {
		author := &domain.Author{
			FirstName:   a.first,
			LastName:    a.last,
			DateOfBirth: mustDate(a.born),
			DateOfDeath: mustDate(a.died),
		}
		if err := st.CreateAuthor(ctx, author); err != nil {
			log.Fatalf("Failed to create author %s: %v", a.last, err)
		}
		authors[a.last] = author
	}
	fmt.Printf("Created %d authors\n", len(authors))

	today := domain.Today(time.Now())
	copies := 0
	for _, d := range demoBooks {
		b := &domain.Book{
			Title:      d.title,
			Summary:    d.summary,
			ISBN:       d.isbn,
			AuthorID:   authors[d.author].ID,
			LanguageID: languages[d.language].ID,
		}
		for _, name := range d.genres {
			b.Genres = append(b.Genres, genres[name])
		}
		if err := st.CreateBook(ctx, b); err != nil {
			log.Fatalf("Failed to create book %s: %v", d.title, err)
		}

		for _, c := range d.copies {
			bi := &domain.BookInstance{BookID: b.ID, Imprint: c.imprint, Status: c.status}
			if c.status == domain.StatusOnLoan {
				due := today.AddDate(0, 0, c.dueIn)
				bi.DueBack = &due
				bi.BorrowerID = users[c.borrower].ID
			}
			if err := st.CreateInstance(ctx, bi); err != nil {
				log.Fatalf("Failed to create copy of %s: %v", d.title, err)
			}
			copies++
		}
		fmt.Printf("  %s (%d copies)\n", b.Title, len(d.copies))
	}
	fmt.Printf("Created %d books and %d copies\n", len(demoBooks), copies)
}

func mustDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		log.Fatalf("Bad demo date %q: %v", s, err)
	}
	return &t
}
