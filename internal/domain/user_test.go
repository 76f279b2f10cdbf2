package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasPerm(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		perm     Permission
		expected bool
	}{
		{"granted", &User{IsActive: true, Permissions: []Permission{PermMarkReturned}}, PermMarkReturned, true},
		{"not granted", &User{IsActive: true, Permissions: []Permission{PermAddBook}}, PermMarkReturned, false},
		{"superuser holds everything", &User{IsActive: true, IsSuperuser: true}, PermDeleteAuthor, true},
		{"inactive holds nothing", &User{IsActive: false, IsSuperuser: true}, PermAddBook, false},
		{"nil user", nil, PermAddBook, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.HasPerm(tt.perm))
		})
	}
}

func TestUser_HasPerms(t *testing.T) {
	u := &User{IsActive: true, Permissions: []Permission{PermAddBook, PermChangeBook}}

	assert.True(t, u.HasPerms(PermAddBook, PermChangeBook))
	assert.False(t, u.HasPerms(PermAddBook, PermDeleteBook))
	assert.True(t, u.HasPerms(), "empty requirement is always satisfied")
}

func TestPermission_IsValid(t *testing.T) {
	for _, p := range LibrarianPermissions {
		assert.True(t, p.IsValid(), string(p))
	}
	assert.False(t, Permission("catalog.launch_rockets").IsValid())
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}).Name())
	assert.Equal(t, "Ada", (&User{Username: "ada", FirstName: "Ada"}).Name())
	assert.Equal(t, "ada", (&User{Username: "ada"}).Name())
}
