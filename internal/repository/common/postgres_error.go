package common

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Taichi-iskw/voice-support/internal/errors"
)

// HandlePostgreSQLError converts pgx and PostgreSQL errors to AppError codes.
// operation is used as the message when nothing more specific applies.
func HandlePostgreSQLError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Wrap(err, apperrors.CodeNotFound, operation+": not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperrors.Wrap(err, apperrors.CodeInternal, operation)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
			return apperrors.Wrap(err, apperrors.CodeConflict, "message with this ID already exists")
		}
		return apperrors.Wrap(err, apperrors.CodeConflict, "resource already exists")
	case "23503": // foreign_key_violation
		return apperrors.Wrap(err, apperrors.CodeDependency, "referenced resource does not exist")
	case "23502": // not_null_violation
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "required field "+pgErr.ColumnName+" is missing")
	case "23514": // check_violation
		if strings.Contains(pgErr.ConstraintName, "role") {
			return apperrors.Wrap(err, apperrors.CodeInvalidArg, "role must be User or Support")
		}
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "data violates check constraint")
	case "22P02": // invalid_text_representation
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid input syntax")
	case "42P01":
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: table not found (run 'vsupport db migrate')")
	case "42703":
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: column not found")
	case "08000", "08003", "08006":
		return apperrors.Wrap(err, apperrors.CodeInternal, "database connection error")
	case "53300":
		return apperrors.Wrap(err, apperrors.CodeInternal, "database connection limit reached")
	default:
		return apperrors.Wrap(err, apperrors.CodeInternal, operation+" (PostgreSQL code: "+pgErr.Code+")")
	}
}
