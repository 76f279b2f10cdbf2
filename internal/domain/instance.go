package domain

import "time"

// LoanStatus is the circulation state of a single copy.
// Values are the single-letter codes persisted in the status column.
type LoanStatus string

const (
	// StatusMaintenance marks a copy withdrawn for repair. New copies start here.
	StatusMaintenance LoanStatus = "m"
	// StatusOnLoan marks a copy held by a borrower.
	StatusOnLoan LoanStatus = "o"
	// StatusAvailable marks a copy on the shelf.
	StatusAvailable LoanStatus = "a"
	// StatusReserved marks a copy held for a patron.
	StatusReserved LoanStatus = "r"
)

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved}

// IsValid checks if the status is a recognized value.
func (s LoanStatus) IsValid() bool {
	switch s {
	case StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved:
		return true
	default:
		return false
	}
}

// Label returns the human readable name of the status.
func (s LoanStatus) Label() string {
	switch s {
	case StatusMaintenance:
		return "Maintenance"
	case StatusOnLoan:
		return "On loan"
	case StatusAvailable:
		return "Available"
	case StatusReserved:
		return "Reserved"
	default:
		return string(s)
	}
}

// BookInstance is one loanable copy of a Book.
//
// Status "a" and an empty BorrowerID go together by convention only;
// nothing in the schema enforces it.
type BookInstance struct {
	Record
	BookID     string     `json:"book_id"`
	Imprint    string     `json:"imprint"`
	DueBack    *time.Time `json:"due_back,omitempty"`
	Status     LoanStatus `json:"status"`
	BorrowerID string     `json:"borrower_id,omitempty"`

	// Populated by list queries that join the parent book.
	Book *Book `json:"book,omitempty"`
}

// IsBorrowed reports whether a borrower is recorded.
func (bi *BookInstance) IsBorrowed() bool {
	return bi.BorrowerID != ""
}

// IsOverdue reports whether the due date lies before the day containing now.
func (bi *BookInstance) IsOverdue(now time.Time) bool {
	return bi.DueBack != nil && bi.DueBack.Before(Today(now))
}

// String returns "<id> (<book title>)" when the book is loaded.
func (bi *BookInstance) String() string {
	if bi.Book != nil {
		return bi.ID + " (" + bi.Book.Title + ")"
	}
	return bi.ID
}
