package store

import (
	"github.com/locallibrary/locallibrary-server/internal/errors"
)

// Sentinel errors returned by store implementations. They are domain errors,
// so callers can match them with errors.Is against either these values or
// the generic errors.ErrNotFound / errors.ErrConflict sentinels.
var (
	// ErrNotFound is returned when a row with the requested key does not exist.
	ErrNotFound = errors.NotFound("resource not found")

	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.Conflict("resource already exists")

	// ErrInUse is returned when a delete is blocked by rows that still reference the target.
	ErrInUse = errors.Conflict("resource is still referenced")

	// ErrInvalidReference is returned when a write points at a row that does not exist.
	ErrInvalidReference = errors.Validation("referenced resource does not exist")
)
