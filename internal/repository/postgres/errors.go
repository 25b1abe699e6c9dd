package postgres

import (
	"errors"
	"fmt"

	"campusdocs/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02" // e.g. a malformed uuid literal
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsPgNoRowsError reports an empty single-row result
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError reports a reference to a row that does not exist
func IsPgForeignKeyError(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// NotFound maps a missing row (or an id that cannot name any row) to
// domain.ErrNotFound and wraps every other error with op.
func NotFound(err error, resource, id, op string) error {
	if IsPgNoRowsError(err) || pgCode(err) == codeInvalidText {
		return fmt.Errorf("%s %s: %w", resource, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
