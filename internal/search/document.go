// Package search keeps an in-process Bleve index of book titles and author
// names. It answers the same question as the SQL search (case-insensitive
// substring) and returns matching IDs; loading and ordering stay with the store.
package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/locallibrary/locallibrary-server/internal/domain"
)

// DocType discriminates documents in the shared index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook   DocType = "book"
	DocTypeAuthor DocType = "author"
)

// Document is the indexed form of a book or an author.
// Books fill Title; authors fill FirstName and LastName.
type Document struct {
	ID        string
	Type      DocType
	Title     string
	FirstName string
	LastName  string
}

// ToMap converts the document to the field names used by the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"type": string(d.Type),
	}
	if d.Title != "" {
		m["title"] = fold(d.Title)
	}
	if d.FirstName != "" {
		m["first_name"] = fold(d.FirstName)
	}
	if d.LastName != "" {
		m["last_name"] = fold(d.LastName)
	}
	return m
}

// BookDocument converts a book to its index document.
func BookDocument(b *domain.Book) *Document {
	return &Document{ID: b.ID, Type: DocTypeBook, Title: b.Title}
}

// AuthorDocument converts an author to its index document.
func AuthorDocument(a *domain.Author) *Document {
	return &Document{ID: a.ID, Type: DocTypeAuthor, FirstName: a.FirstName, LastName: a.LastName}
}

// fold puts text in the form both indexing and querying compare on.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
