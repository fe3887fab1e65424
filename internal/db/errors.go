package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
)

// Translate maps driver-level errors onto the apperr kinds. Errors it does
// not recognise are returned unchanged.
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", entity)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return apperr.Conflict("%s already exists", entity)
	case pgerrcode.ForeignKeyViolation:
		return apperr.InvalidArgument("%s references a missing record", entity)
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return apperr.InvalidArgument("%s failed validation: %s", entity, pgErr.ConstraintName)
	case pgerrcode.InvalidTextRepresentation, pgerrcode.NumericValueOutOfRange:
		return apperr.InvalidArgument("invalid value for %s", entity)
	default:
		return err
	}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
