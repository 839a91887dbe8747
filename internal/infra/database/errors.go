package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// wrapDBError annotates err with the violated constraint when Postgres
// reports one.
func wrapDBError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return fmt.Errorf("%s: constraint %s: %w", op, pgErr.ConstraintName, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
