package domain

import "strings"

// displayGenreLimit caps how many genre names DisplayGenre joins.
const displayGenreLimit = 3

// Book is a catalogued title. Physical copies are BookInstances.
type Book struct {
	Record
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	ISBN       string `json:"isbn"`
	AuthorID   string `json:"author_id,omitempty"`
	LanguageID string `json:"language_id,omitempty"`

	// Populated by the store when loading a book; not written back.
	Author   *Author   `json:"author,omitempty"`
	Language *Language `json:"language,omitempty"`
	Genres   []*Genre  `json:"genres,omitempty"`
}

// String returns the book title.
func (b *Book) String() string {
	return b.Title
}

// GenreIDs returns the IDs of the loaded genres, in order.
func (b *Book) GenreIDs() []string {
	ids := make([]string, 0, len(b.Genres))
	for _, g := range b.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// DisplayGenre joins the first few genre names for list views.
func (b *Book) DisplayGenre() string {
	names := make([]string, 0, displayGenreLimit)
	for i, g := range b.Genres {
		if i == displayGenreLimit {
			break
		}
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}
