package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain failure taxonomy. Handlers translate these into stable error
// codes; anything else coming out of this package is a persistence
// failure and must not leak raw store detail to clients.
var (
	ErrValidation      = errors.New("validation failed")
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrDuplicateFriend = errors.New("friend request already exists or users are already friends")
	ErrNotFound        = errors.New("not found")
	ErrNotAuthorized   = errors.New("not authorized")
)

// isUniqueViolation reports whether err is a postgres duplicate-key
// error, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports whether err is a postgres FK error,
// e.g. tagging a user id that does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
