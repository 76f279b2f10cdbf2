package domain

import (
	"strings"
	"time"
)

// Author is a person credited as the writer of one or more books.
type Author struct {
	Record
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
}

// String returns the catalog form of the name, "Last, First".
func (a *Author) String() string {
	switch {
	case a.LastName == "":
		return a.FirstName
	case a.FirstName == "":
		return a.LastName
	default:
		return a.LastName + ", " + a.FirstName
	}
}

// FullName returns "First Last".
func (a *Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Lifespan renders the birth and death dates as "1892-01-03 - 1973-09-02".
// Either side is left blank when unknown.
func (a *Author) Lifespan() string {
	if a.DateOfBirth == nil && a.DateOfDeath == nil {
		return ""
	}
	return FormatDate(a.DateOfBirth) + " - " + FormatDate(a.DateOfDeath)
}

// DiedBeforeBirth reports whether both dates are set and out of order.
func (a *Author) DiedBeforeBirth() bool {
	return a.DateOfBirth != nil && a.DateOfDeath != nil && a.DateOfDeath.Before(*a.DateOfBirth)
}
