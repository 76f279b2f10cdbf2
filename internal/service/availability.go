package service

import (
	"strconv"

	"github.com/locallibrary/locallibrary-server/internal/domain"
)

// AvailableCopies counts, for every book, the copies that have no borrower.
// Books with no such copy are absent; counts are rendered as decimal strings.
//
// This is the reference scan over every (book, copy) pair. Request paths use
// store.CountAvailableCopies with FormatAvailability, which must agree with it.
func AvailableCopies(books []*domain.Book, copies []*domain.BookInstance) map[string]string {
	counts := make(map[string]int)
	for _, b := range books {
		for _, c := range copies {
			if c.BookID == b.ID && !c.IsBorrowed() {
				counts[b.ID]++
			}
		}
	}
	return FormatAvailability(counts)
}

// FormatAvailability turns per-book counts into the display map, dropping zeros.
func FormatAvailability(counts map[string]int) map[string]string {
	out := make(map[string]string, len(counts))
	for bookID, n := range counts {
		if n > 0 {
			out[bookID] = strconv.Itoa(n)
		}
	}
	return out
}
