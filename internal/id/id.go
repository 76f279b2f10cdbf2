// Package id generates identifiers for catalog records.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entity kinds that use NanoID identifiers.
const (
	PrefixAuthor   = "author"
	PrefixBook     = "book"
	PrefixGenre    = "genre"
	PrefixLanguage = "lang"
	PrefixUser     = "user"
	PrefixSession  = "sess"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewCopyID returns a random UUID for a book copy.
// Copies carry UUIDs so that labels printed for the shelf stay globally unique.
func NewCopyID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate copy uuid: %w", err)
	}
	return u.String(), nil
}

// IsCopyID reports whether s parses as a copy UUID.
func IsCopyID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
