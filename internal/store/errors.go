package store

import (
	"errors"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the application distinguishes.
const (
	codeInsufficientPrivilege = "42501"
	codeInvalidText           = "22P02"
	codeNotNullViolation      = "23502"
	codeForeignKeyViolation   = "23503"
	codeUniqueViolation       = "23505"
	codeCheckViolation        = "23514"
)

// MapError translates a store failure into an *apperr.Error. Errors that are
// already classified pass through unchanged; anything the database did not
// explain becomes an unexpected error. nil maps to nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "The requested resource was not found", Err: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperr.Unexpected(err)
	}

	switch pgErr.Code {
	case codeInsufficientPrivilege:
		return &apperr.Error{Kind: apperr.KindForbidden, Message: "You do not have permission to perform this action", Err: err}
	case codeInvalidText:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid input format", Err: err}
	case codeNotNullViolation:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "A required field is missing", Err: err}
	case codeForeignKeyViolation:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Referenced record does not exist", Err: err}
	case codeUniqueViolation:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "This record already exists", Err: err}
	case codeCheckViolation:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "A value is outside the allowed range", Err: err}
	default:
		return apperr.Unexpected(err)
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
