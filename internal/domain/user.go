package domain

import (
	"slices"
	"time"
)

// Permission is a named capability granted to a user.
type Permission string

// Catalog permissions.
const (
	PermMarkReturned Permission = "catalog.can_mark_returned"
	PermAddAuthor    Permission = "catalog.add_author"
	PermChangeAuthor Permission = "catalog.change_author"
	PermDeleteAuthor Permission = "catalog.delete_author"
	PermAddBook      Permission = "catalog.add_book"
	PermChangeBook   Permission = "catalog.change_book"
	PermDeleteBook   Permission = "catalog.delete_book"
)

// LibrarianPermissions is the full set granted to library staff.
var LibrarianPermissions = []Permission{
	PermMarkReturned,
	PermAddAuthor, PermChangeAuthor, PermDeleteAuthor,
	PermAddBook, PermChangeBook, PermDeleteBook,
}

// IsValid checks the permission against the known catalog permissions.
func (p Permission) IsValid() bool {
	return slices.Contains(LibrarianPermissions, p)
}

// User is an account that can sign in, borrow copies and, with the right
// permissions, maintain the catalog.
type User struct {
	Record
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	IsStaff      bool         `json:"is_staff"`
	IsSuperuser  bool         `json:"is_superuser"`
	IsActive     bool         `json:"is_active"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	Permissions  []Permission `json:"permissions"`
}

// HasPerm reports whether the user holds p.
// Superusers hold every permission; inactive users hold none.
func (u *User) HasPerm(p Permission) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	return slices.Contains(u.Permissions, p)
}

// HasPerms reports whether the user holds every permission in ps.
func (u *User) HasPerms(ps ...Permission) bool {
	for _, p := range ps {
		if !u.HasPerm(p) {
			return false
		}
	}
	return true
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
