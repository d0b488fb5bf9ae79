package repository

import "errors"

// ErrNotFound is returned by Get-style methods when no row matches. User
// and profile lookups skip soft-deleted rows; Sessions.GetByID returns a
// soft-deleted row with DeletedAt set. Callers translate it to
// apierr.NotFound at the handler boundary.
var ErrNotFound = errors.New("repository: record not found")
